// Package device serves sectors of disk images and block devices by device id.
// Images implements the SectorReader tinyfat volumes are read through.
package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/aligator/tinyfat/checkpoint"
	"github.com/diskfs/go-diskfs/backend/file"
	"github.com/spf13/afero"
)

// These errors may occur while reading sectors.
var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrDeviceInUse   = errors.New("device id already attached")
	ErrShortRead     = errors.New("sector could not be read completely")
)

type image struct {
	r      io.ReaderAt
	closer io.Closer
}

// Images maps device ids to images. It is not safe for concurrent use.
type Images struct {
	images map[int]image
}

// New creates an empty set of images.
func New() *Images {
	return &Images{
		images: make(map[int]image),
	}
}

// Attach serves dev from r. Images does not close r.
// May return ErrDeviceInUse.
func (im *Images) Attach(dev int, r io.ReaderAt) error {
	return im.attach(dev, r, nil)
}

func (im *Images) attach(dev int, r io.ReaderAt, closer io.Closer) error {
	if _, ok := im.images[dev]; ok {
		return checkpoint.Wrap(fmt.Errorf("device %d", dev), ErrDeviceInUse)
	}
	im.images[dev] = image{r: r, closer: closer}
	return nil
}

// OpenImage opens the image file name of fs and serves dev from it.
// The file is closed by Detach.
func (im *Images) OpenImage(fs afero.Fs, dev int, name string) error {
	f, err := fs.Open(name)
	if err != nil {
		return checkpoint.From(err)
	}

	if err := im.attach(dev, f, f); err != nil {
		_ = f.Close()
		return err
	}
	return nil
}

// OpenPath opens an image file or a block device read-only and serves dev from it.
// The file is closed by Detach.
func (im *Images) OpenPath(dev int, path string) error {
	storage, err := file.OpenFromPath(path, true)
	if err != nil {
		return checkpoint.From(err)
	}

	if err := im.attach(dev, storage, storage); err != nil {
		_ = storage.Close()
		return err
	}
	return nil
}

// Detach stops serving dev and closes its file if Images opened it.
// May return ErrUnknownDevice.
func (im *Images) Detach(dev int) error {
	img, ok := im.images[dev]
	if !ok {
		return checkpoint.Wrap(fmt.Errorf("device %d", dev), ErrUnknownDevice)
	}
	delete(im.images, dev)

	if img.closer != nil {
		return checkpoint.From(img.closer.Close())
	}
	return nil
}

// Close detaches all devices and returns the first error.
func (im *Images) Close() error {
	var first error
	for dev := range im.images {
		if err := im.Detach(dev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadSector fills buf with sector of dev. Sectors are len(buf) bytes long.
// May return ErrUnknownDevice or ErrShortRead.
func (im *Images) ReadSector(dev int, sector uint32, buf []byte) error {
	img, ok := im.images[dev]
	if !ok {
		return checkpoint.Wrap(fmt.Errorf("device %d", dev), ErrUnknownDevice)
	}

	n, err := img.r.ReadAt(buf, int64(sector)*int64(len(buf)))
	// ReaderAt may report io.EOF together with a complete read at the very end.
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return checkpoint.Wrap(fmt.Errorf("device %d sector %d: got %d of %d bytes", dev, sector, n, len(buf)), ErrShortRead)
	}
	return checkpoint.Wrap(err, ErrShortRead)
}
