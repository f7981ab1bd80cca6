package tinyfat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/tinyfat/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// File is an open Item implementing afero.File.
type File struct {
	name   string
	item   Item
	closed bool
}

func newFile(name string, item Item) *File {
	item.Rewind()
	return &File{
		name: name,
		item: item,
	}
}

// Close releases the item. All later calls fail with os.ErrClosed.
func (f *File) Close() error {
	if f.closed {
		return &os.PathError{Op: "close", Path: f.name, Err: os.ErrClosed}
	}
	f.item = Item{}
	f.closed = true
	return nil
}

func (f *File) check(op string) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.name, Err: os.ErrClosed}
	}
	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if err := f.check("read"); err != nil {
		return 0, err
	}
	if f.item.IsDir() {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: syscall.EISDIR}
	}

	n, err = f.item.Read(p)
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, err
}

// ReadAt reads len(p) bytes starting at off without moving the offset used by Read.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if err := f.check("read"); err != nil {
		return 0, err
	}
	if f.item.IsDir() {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: syscall.EISDIR}
	}
	if off < 0 {
		return 0, &os.PathError{Op: "readat", Path: f.name, Err: syscall.EINVAL}
	}

	// Reading over the end makes no sense.
	if off >= int64(f.item.Size) {
		return 0, io.EOF
	}

	item := f.item
	if err := skipTo(&item, off); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	n, err = io.ReadFull(&item, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, err
}

// skipTo moves the cursor of item to off. Clusters can only be found by walking the chain,
// so moving backwards starts over from the first cluster.
func skipTo(item *Item, off int64) error {
	if off < int64(item.offset) {
		item.Rewind()
	}

	delta := off - int64(item.offset)
	if delta == 0 {
		return nil
	}

	if _, err := io.CopyN(io.Discard, item, delta); err != nil {
		if err == io.EOF {
			return fmt.Errorf("cluster chain ends at byte %d of %d", item.offset, off)
		}
		return err
	}
	return nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// Directories can only be rewound with Seek(0, io.SeekStart).
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.check("seek"); err != nil {
		return 0, err
	}

	if f.item.IsDir() {
		if offset != 0 || whence != io.SeekStart {
			return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
		}
		f.item.Rewind()
		return 0, nil
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = int64(f.item.offset) + offset
	case io.SeekEnd:
		offset = int64(f.item.Size) + offset
	default:
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
	}

	if offset < 0 || offset > int64(f.item.Size) {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence), afero.ErrOutOfRange)
	}

	if err := skipTo(&f.item, offset); err != nil {
		return int64(f.item.offset), checkpoint.Wrap(err, ErrSeekFile)
	}
	return offset, nil
}

func (f *File) Name() string {
	return f.name
}

// listed reports whether an entry shows up in directory listings.
// The volume label and the "." and ".." links are hidden, as os.File.Readdir does.
func listed(entry Item) bool {
	if entry.Attr.Has(AttrVolumeID) {
		return false
	}
	name := entry.Short.String()
	return name != ".          " && name != "..         "
}

// Readdir reads the contents of a directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.check("readdir"); err != nil {
		return nil, err
	}
	if !f.item.IsDir() {
		return nil, checkpoint.Wrap(&os.PathError{Op: "readdir", Path: f.name, Err: syscall.ENOTDIR}, ErrReadDir)
	}

	var result []os.FileInfo
	for count <= 0 || len(result) < count {
		entry, err := f.item.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, checkpoint.Wrap(err, ErrReadDir)
		}

		if listed(entry) {
			result = append(result, entry.FileInfo())
		}
	}

	if count > 0 && len(result) == 0 {
		return nil, io.EOF
	}
	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	if err := f.check("stat"); err != nil {
		return nil, err
	}
	return f.item.FileInfo(), nil
}

// Sync does nothing, there is never anything to flush.
func (f *File) Sync() error {
	return f.check("sync")
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, readOnly("write", f.name)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, readOnly("write", f.name)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Truncate(size int64) error {
	return readOnly("truncate", f.name)
}
