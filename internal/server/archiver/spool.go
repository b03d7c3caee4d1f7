package archiver

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
)

// spool holds one fetched body. It keeps up to limit bytes in memory and
// moves everything to a temp file on fs once that is exceeded.
type spool struct {
	fs    afero.Fs
	dir   string
	limit int64

	buf  bytes.Buffer
	file afero.File
	size int64
}

func newSpool(fs afero.Fs, dir string, limit int64) *spool {
	return &spool{fs: fs, dir: dir, limit: limit}
}

func (s *spool) Write(p []byte) (int, error) {
	if s.file == nil && int64(s.buf.Len())+int64(len(p)) > s.limit {
		if err := s.spill(); err != nil {
			return 0, err
		}
	}

	var (
		n   int
		err error
	)
	if s.file != nil {
		n, err = s.file.Write(p)
	} else {
		n, err = s.buf.Write(p)
	}
	s.size += int64(n)
	return n, err
}

func (s *spool) spill() error {
	f, err := afero.TempFile(s.fs, s.dir, "studyportal-spool-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(s.buf.Bytes()); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(f.Name())
		return err
	}
	s.buf = bytes.Buffer{}
	s.file = f
	return nil
}

// Size is the number of bytes spooled so far.
func (s *spool) Size() int64 { return s.size }

// OnDisk reports whether the body spilled to the file system.
func (s *spool) OnDisk() bool { return s.file != nil }

// Reader rewinds the spool and returns a reader over its contents.
func (s *spool) Reader() (io.Reader, error) {
	if s.file == nil {
		return bytes.NewReader(s.buf.Bytes()), nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return s.file, nil
}

// Close releases memory and removes the temp file, if any.
func (s *spool) Close() error {
	s.buf = bytes.Buffer{}
	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	if rerr := s.fs.Remove(name); err == nil {
		err = rerr
	}
	s.file = nil
	return err
}
