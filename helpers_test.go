package tinyfat

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/aligator/tinyfat/device"
	"github.com/aligator/tinyfat/internal/fatimage"
	"github.com/stretchr/testify/require"
)

// longText spans three clusters of 512 bytes.
var longText = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)

// testTree builds the tree most tests work on:
//
//	/HELLO.TXT        "Hello World"
//	/DIR/SUB/FILE.TXT "sub file content"
//	/DIR/LONG.TXT     longText
//	/EMPTY.TXT        0 bytes
func testTree(opts fatimage.Options) (*fatimage.Image, map[string]*fatimage.Node) {
	if opts.VolumeLabel == "" {
		opts.VolumeLabel = "TESTVOL"
	}
	img := fatimage.New(opts)
	root := img.Root()

	nodes := map[string]*fatimage.Node{}
	nodes["/hello.txt"] = root.File("HELLO.TXT", []byte("Hello World"))
	dir := root.Dir("DIR")
	nodes["/dir"] = dir
	sub := dir.Dir("SUB")
	nodes["/dir/sub"] = sub
	nodes["/dir/sub/file.txt"] = sub.File("FILE.TXT", []byte("sub file content"))
	nodes["/dir/long.txt"] = dir.File("LONG.TXT", []byte(longText))
	nodes["/empty.txt"] = root.File("EMPTY.TXT", nil)

	return img, nodes
}

// testDevices serves each image under its index as device id.
func testDevices(t *testing.T, images ...[]byte) *device.Images {
	t.Helper()

	devices := device.New()
	for dev, raw := range images {
		require.NoError(t, devices.Attach(dev, bytes.NewReader(raw)))
	}
	return devices
}

// testMount mounts img as device 0 with label 'A'.
func testMount(t *testing.T, img *fatimage.Image, opts ...Option) (*Registry, *Volume, fatimage.Layout) {
	t.Helper()

	raw, layout := img.Build()
	r := NewRegistry(testDevices(t, raw), opts...)
	require.NoError(t, r.Mount(0, 'A'))

	v, err := r.Volume('A')
	require.NoError(t, err)
	return r, v, layout
}

// imageReader serves sectors from raw like a device.Images, to be used with DoAndReturn.
func imageReader(raw []byte) func(dev int, sector uint32, buf []byte) error {
	return func(dev int, sector uint32, buf []byte) error {
		off := int(sector) * len(buf)
		if off+len(buf) > len(raw) {
			return fmt.Errorf("sector %d behind the end of the image", sector)
		}
		copy(buf, raw[off:])
		return nil
	}
}
