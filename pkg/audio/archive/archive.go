// Package archive durably copies finished destination files to a
// storage.FileStore after their writer has closed them. Audio sinks that
// need seek-based header rewrites (the WAV encoder in particular) write
// straight to local disk; archival runs strictly after Finalize, so the
// network path never competes with the capture/producer hot path and
// never needs a seekable upload target.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oakmix/audioengine/pkg/audio/sink"
	"github.com/oakmix/audioengine/pkg/storage"
)

// Archiver copies closed local files into a FileStore, keyed by base
// filename.
type Archiver struct {
	store storage.FileStore
}

// New returns an Archiver writing into store.
func New(store storage.FileStore) *Archiver {
	return &Archiver{store: store}
}

// UploadGlob uploads every local file matching pattern. Used after a
// destination closes, to sweep up both the primary file and any
// `_partN` splits the WAV encoder produced alongside it.
func (a *Archiver) UploadGlob(ctx context.Context, pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("archive: glob %s: %w", pattern, err)
	}
	for _, m := range matches {
		if err := a.uploadFile(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) uploadFile(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := a.store.Write(ctx, filepath.Base(localPath))
	if err != nil {
		return fmt.Errorf("archive: open remote %s: %w", localPath, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("archive: copy %s: %w", localPath, err)
	}
	return w.Close()
}

// Sink wraps a sink.Sink so that Close also sweeps globPattern into the
// archiver, once the underlying writer has fully flushed and closed its
// local file(s). Archival errors do not override the underlying sink's
// own close error; they are returned only if the underlying Close
// otherwise succeeds.
type Sink struct {
	sink.Sink
	archiver    *Archiver
	globPattern string
}

// Wrap returns a Sink that archives globPattern's matches after delegate
// closes.
func Wrap(delegate sink.Sink, archiver *Archiver, globPattern string) *Sink {
	return &Sink{Sink: delegate, archiver: archiver, globPattern: globPattern}
}

// Close closes the underlying sink, then uploads every file matching
// globPattern to the configured store.
func (s *Sink) Close() error {
	if err := s.Sink.Close(); err != nil {
		return err
	}
	return s.archiver.UploadGlob(context.Background(), s.globPattern)
}
