package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arjunrai/tableidx/errs"
)

// LocalFileIO implements FileIO against a directory on local disk. It
// validates or creates the base directory, opens with explicit
// permissions, and syncs on close, but performs no segment rotation: a
// file index file is written once, atomically, by a single output
// stream per file, never rotated.
type LocalFileIO struct {
	dir    string
	logger zerolog.Logger
}

// NewLocalFileIO creates a LocalFileIO rooted at dir, creating dir if it
// does not already exist.
func NewLocalFileIO(dir string) (*LocalFileIO, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &LocalFileIO{dir: dir, logger: log.With().Str("component", "storage.localfs").Str("dir", dir).Logger()}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("path exists but is not a directory: %s", path)
	}
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(path, 0o755)
	}
	return err
}

func (l *LocalFileIO) resolve(path string) string {
	return filepath.Join(l.dir, path)
}

// NewInput opens path for range reads.
func (l *LocalFileIO) NewInput(path string) (InputFile, error) {
	return &localInputFile{path: l.resolve(path)}, nil
}

// NewOutput opens path for a single sequential write pass.
func (l *LocalFileIO) NewOutput(path string) (OutputFile, error) {
	return &localOutputFile{path: l.resolve(path)}, nil
}

// Stat returns the size in bytes of path.
func (l *LocalFileIO) Stat(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return 0, errs.IoUnexpected(err)
	}
	return info.Size(), nil
}

// Delete removes path.
func (l *LocalFileIO) Delete(ctx context.Context, path string) error {
	if err := os.Remove(l.resolve(path)); err != nil {
		l.logger.Warn().Err(err).Str("path", path).Msg("delete failed")
		return errs.IoUnexpected(err)
	}
	return nil
}

type localInputFile struct {
	path string
}

func (f *localInputFile) ReadRange(ctx context.Context, r ByteRange) ([]byte, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errs.IoUnexpected(err)
	}
	defer file.Close()

	buf := make([]byte, r.Length)
	if _, err := file.ReadAt(buf, r.Start); err != nil {
		return nil, errs.IoUnexpected(err)
	}
	return buf, nil
}

func (f *localInputFile) Stat(ctx context.Context) (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, errs.IoUnexpected(err)
	}
	return info.Size(), nil
}

type localOutputFile struct {
	path string
}

func (f *localOutputFile) Writer(ctx context.Context) (io.WriteCloser, error) {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errs.IoUnexpected(err)
	}
	return &syncingWriteCloser{f: file}, nil
}

// syncingWriteCloser fsyncs on Close before considering a write durable.
type syncingWriteCloser struct {
	f *os.File
}

func (w *syncingWriteCloser) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, errs.IoUnexpected(err)
	}
	return n, nil
}

func (w *syncingWriteCloser) Close() error {
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return errs.IoUnexpected(err)
	}
	if err := w.f.Close(); err != nil {
		return errs.IoUnexpected(err)
	}
	return nil
}
