// Command tableidxinfo prints the column/index layout of a sidecar file
// index container, without decoding any individual index's payload.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arjunrai/tableidx/container"
	"github.com/arjunrai/tableidx/storage"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tableidxinfo <index-file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Error().Err(err).Msg("tableidxinfo failed")
		os.Exit(1)
	}
}

func run(path string) error {
	ctx := context.Background()

	dir := filepath.Dir(path)
	fio, err := storage.NewLocalFileIO(dir)
	if err != nil {
		return err
	}

	in, err := fio.NewInput(filepath.Base(path))
	if err != nil {
		return err
	}

	idx, err := container.Open(ctx, in)
	if err != nil {
		return err
	}

	for _, column := range idx.Columns() {
		entries, err := idx.GetColumnIndex(ctx, column)
		if err != nil {
			return err
		}
		for name, data := range entries {
			fmt.Printf("%s\t%s\t%d bytes\n", column, name, len(data))
		}
	}
	return nil
}
