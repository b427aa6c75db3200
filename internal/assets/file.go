package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirSource serves assets from a directory, the way a static web root would.
type DirSource struct {
	Root string
}

// Resolve maps a reference to a file path under Root.
func (s DirSource) Resolve(ref Ref) string {
	rel := strings.TrimPrefix(string(ref.Clean()), "/")
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Open implements Source.
func (s DirSource) Open(_ context.Context, ref Ref) (io.ReadCloser, int64, error) {
	p := s.Resolve(ref)

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, 0, fmt.Errorf("opening %s: %w", p, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrNotFound, ref)
	}

	return f, info.Size(), nil
}
