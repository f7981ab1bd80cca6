package tinyfat

import (
	"errors"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// Fs is a read-only afero.Fs view of one mounted volume.
// Paths are relative to the root of the volume, "/a/b", "a/b" and "./a/b" are the same.
type Fs struct {
	vol *Volume
}

// Fs returns the afero.Fs of the volume mounted with label.
// May return ErrNotMounted.
func (r *Registry) Fs(label byte) (*Fs, error) {
	v, err := r.Volume(label)
	if err != nil {
		return nil, err
	}
	return NewFs(v), nil
}

// NewFs creates an afero.Fs for an already mounted volume.
func NewFs(v *Volume) *Fs {
	return &Fs{vol: v}
}

// resolve looks name up on the volume.
func (fs *Fs) resolve(name string) (Item, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return fs.vol.Root(), nil
	}
	return fs.vol.Root().Find(clean[1:])
}

// pathError converts err into an *os.PathError carrying the os error value for it,
// so that os.IsNotExist and friends work as afero helpers expect.
func pathError(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrPathNotFound):
		err = syscall.ENOENT
	case errors.Is(err, ErrNotADirectory), errors.Is(err, ErrNotDirectory):
		err = syscall.ENOTDIR
	case errors.Is(err, ErrPathInvalid), errors.Is(err, ErrLongNameUnsupported):
		err = os.ErrInvalid
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

func readOnly(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: syscall.EROFS}
}

func (fs *Fs) Open(name string) (afero.File, error) {
	item, err := fs.resolve(name)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return newFile(name, item), nil
}

// OpenFile opens name for reading. Any flag which would write returns syscall.EROFS.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, readOnly("open", name)
	}
	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	item, err := fs.resolve(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return item.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "tinyfat"
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, readOnly("create", name)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return readOnly("mkdir", name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return readOnly("mkdir", path)
}

func (fs *Fs) Remove(name string) error {
	return readOnly("remove", name)
}

func (fs *Fs) RemoveAll(path string) error {
	return readOnly("remove", path)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return readOnly("rename", oldname)
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return readOnly("chmod", name)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return readOnly("chown", name)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnly("chtimes", name)
}
