// Package artifacts writes the per-record debug files that accompany a batch:
// <dir>/<key>.svg with the decoded document and <dir>/<key>.png with the
// rendered image. The files are write-once; nothing reads them back and
// nothing cleans them up.
package artifacts

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/svg2png/pkg/errors"
)

// Extensions of the two side files.
const (
	ExtSVG = ".svg"
	ExtPNG = ".png"
)

// Store persists side files.
type Store interface {
	WriteSVG(key string, data []byte) error
	WritePNG(key string, data []byte) error
}

// DirStore writes side files into a directory.
//
// The directory must already exist unless Create is set; a missing directory
// makes every write fail with IO_ERROR, which fails the record.
type DirStore struct {
	Dir    string
	Create bool
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string, create bool) *DirStore {
	return &DirStore{Dir: dir, Create: create}
}

// WriteSVG writes <dir>/<key>.svg.
func (s *DirStore) WriteSVG(key string, data []byte) error {
	return s.write(key+ExtSVG, key, data)
}

// WritePNG writes <dir>/<key>.png.
func (s *DirStore) WritePNG(key string, data []byte) error {
	return s.write(key+ExtPNG, key, data)
}

// Path returns the path of the side file for key with extension ext.
func (s *DirStore) Path(key, ext string) string {
	return filepath.Join(s.Dir, key+ext)
}

func (s *DirStore) write(name, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	if s.Create {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", s.Dir)
		}
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// NopStore discards side files.
type NopStore struct{}

// WriteSVG does nothing.
func (NopStore) WriteSVG(string, []byte) error { return nil }

// WritePNG does nothing.
func (NopStore) WritePNG(string, []byte) error { return nil }

var (
	_ Store = (*DirStore)(nil)
	_ Store = NopStore{}
)
