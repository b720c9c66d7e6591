package flatfile

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

var errInjected = errors.New("injected fault")

// faultyFs wraps an afero.Fs and hands out files whose operations can be made to fail
type faultyFs struct {
	afero.Fs
	failRemove bool
	// shortWrites makes every file opened from now on write only half of each buffer
	shortWrites bool
	files       []*faultyFile
}

func newFaultyFs() *faultyFs {
	return &faultyFs{Fs: afero.NewMemMapFs()}
}

func (fs *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	ff := &faultyFile{File: f, writesLeft: -1, shortWrite: fs.shortWrites}
	fs.files = append(fs.files, ff)
	return ff, nil
}

func (fs *faultyFs) Remove(name string) error {
	if fs.failRemove {
		return errInjected
	}
	return fs.Fs.Remove(name)
}

// last returns the most recently opened file
func (fs *faultyFs) last() *faultyFile {
	return fs.files[len(fs.files)-1]
}

type faultyFile struct {
	afero.File
	failSeek  bool
	failRead  bool
	failClose bool
	// shortWrite writes half of p and reports no error
	shortWrite bool
	// writesLeft is the number of writes that still succeed (-1 = unlimited)
	writesLeft int
}

func (f *faultyFile) Seek(offset int64, whence int) (int64, error) {
	if f.failSeek {
		return 0, errInjected
	}
	return f.File.Seek(offset, whence)
}

func (f *faultyFile) Read(p []byte) (int, error) {
	if f.failRead {
		return 0, errInjected
	}
	return f.File.Read(p)
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if f.writesLeft == 0 {
		return 0, errInjected
	}
	if f.writesLeft > 0 {
		f.writesLeft--
	}
	if f.shortWrite && len(p) > 1 {
		return f.File.Write(p[:len(p)/2])
	}
	return f.File.Write(p)
}

func (f *faultyFile) Close() error {
	err := f.File.Close()
	if f.failClose {
		return errInjected
	}
	return err
}
