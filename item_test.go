package tinyfat

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aligator/tinyfat/internal/fatimage"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(t *testing.T, dir Item) []string {
	t.Helper()

	var result []string
	for {
		entry, err := dir.ReadEntry()
		if err == io.EOF {
			return result
		}
		require.NoError(t, err)
		result = append(result, entry.Name())
	}
}

func TestItem_ReadEntry(t *testing.T) {
	tests := []struct {
		name  string
		build func(root *fatimage.Node)
		want  []string
	}{
		{
			name: "entries in on-disk order",
			build: func(root *fatimage.Node) {
				root.File("B.TXT", nil)
				root.Dir("A")
				root.File("C", []byte("c"))
			},
			want: []string{"b.txt", "a", "c"},
		},
		{
			name: "deleted entries and long name fragments are skipped",
			build: func(root *fatimage.Node) {
				root.LongNameFragment(0x41, "first.txt")
				root.File("FIRST.TXT", nil)
				root.Deleted("GONE.TXT")
				root.File("SECOND.TXT", nil)
				root.LongNameFragment(0x42, "ThisIsALongNa")
				root.LongNameFragment(0x01, "me.md")
				root.Deleted("GONE2")
			},
			want: []string{"first.txt", "second.txt"},
		},
		{
			name: "stops at the first entry with attribute 0",
			build: func(root *fatimage.Node) {
				root.File("SEEN.TXT", nil)
				root.EndMarker("GHOST.TXT")
				root.File("HIDDEN.TXT", nil)
				root.Dir("LOST")
			},
			want: []string{"seen.txt"},
		},
		{
			name: "stops at a record with name byte 0 even if its attribute is set",
			build: func(root *fatimage.Node) {
				root.File("SEEN.TXT", nil)
				root.Raw([]byte("\x00HOST   TXT\x20"))
				root.File("HIDDEN.TXT", nil)
			},
			want: []string{"seen.txt"},
		},
		{
			name:  "empty directory",
			build: func(root *fatimage.Node) {},
			want:  nil,
		},
		{
			name: "volume label is a regular entry",
			build: func(root *fatimage.Node) {
				root.Raw([]byte("LABEL      \x08"))
				root.File("A.TXT", nil)
			},
			want: []string{"label", "a.txt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := fatimage.New(fatimage.Options{})
			tt.build(img.Root())
			_, v, _ := testMount(t, img)

			assert.Equal(t, tt.want, names(t, v.Root()))
		})
	}
}

func TestItem_ReadEntry_multiCluster(t *testing.T) {
	// 40 entries of 32 bytes need three clusters of 512 bytes.
	img := fatimage.New(fatimage.Options{ReverseChains: true})
	dir := img.Root().Dir("MANY")
	var want []string
	want = append(want, ".", "..")
	for i := 0; i < 38; i++ {
		name := fmt.Sprintf("FILE%02d.TXT", i)
		dir.File(name, []byte(name))
		want = append(want, fmt.Sprintf("file%02d.txt", i))
	}
	require.Len(t, dir.Clusters(), 0, "not built yet")

	_, v, _ := testMount(t, img)
	require.Len(t, dir.Clusters(), 3)

	many, err := v.Root().Find("many")
	require.NoError(t, err)
	assert.Equal(t, want, names(t, many))
}

func TestItem_ReadEntry_fullCluster(t *testing.T) {
	// 16 entries fill one cluster exactly, the chain end terminates the directory.
	img := fatimage.New(fatimage.Options{})
	var want []string
	for i := 0; i < 16; i++ {
		img.Root().File(fmt.Sprintf("F%d", i), nil)
		want = append(want, fmt.Sprintf("f%d", i))
	}
	_, v, _ := testMount(t, img)

	assert.Equal(t, want, names(t, v.Root()))
}

func TestItem_ReadEntry_stickyEnd(t *testing.T) {
	img, _ := testTree(fatimage.Options{})
	_, v, _ := testMount(t, img)

	root := v.Root()
	for {
		if _, err := root.ReadEntry(); err == io.EOF {
			break
		}
	}

	for i := 0; i < 3; i++ {
		_, err := root.ReadEntry()
		assert.Equal(t, io.EOF, err)
	}

	root.Rewind()
	entry, err := root.ReadEntry()
	require.NoError(t, err)
	assert.Equal(t, "testvol", entry.Name())
}

func TestItem_ReadEntry_notDirectory(t *testing.T) {
	img, _ := testTree(fatimage.Options{})
	_, v, _ := testMount(t, img)

	file, err := v.Root().Find("hello.txt")
	require.NoError(t, err)

	_, err = file.ReadEntry()
	assert.ErrorIs(t, err, ErrNotDirectory)
	assert.Equal(t, CodeNotDirectory, ErrorCode(err))
}

func TestItem_ReadDir(t *testing.T) {
	img, _ := testTree(fatimage.Options{})
	_, v, _ := testMount(t, img)

	root := v.Root()
	first, err := root.ReadDir(2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "testvol", first[0].Name())
	assert.Equal(t, "hello.txt", first[1].Name())

	rest, err := root.ReadDir(-1)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "dir", rest[0].Name())
	assert.True(t, rest[0].IsDir())
	assert.Equal(t, "empty.txt", rest[1].Name())

	none, err := root.ReadDir(1)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, none)

	none, err = root.ReadDir(0)
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestItem_Read(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		bufSize int
		want    string
	}{
		{name: "small file, large buffer", path: "hello.txt", bufSize: 100, want: "Hello World"},
		{name: "small file, tiny buffer", path: "hello.txt", bufSize: 3, want: "Hello World"},
		{name: "multi cluster file", path: "dir/long.txt", bufSize: 512, want: longText},
		{name: "multi cluster file, odd buffer", path: "dir/long.txt", bufSize: 77, want: longText},
		{name: "multi cluster file in one read", path: "dir/long.txt", bufSize: 4096, want: longText},
		{name: "empty file", path: "empty.txt", bufSize: 10, want: ""},
	}
	for _, reverse := range []bool{false, true} {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/reverse=%v", tt.name, reverse), func(t *testing.T) {
				img, _ := testTree(fatimage.Options{ReverseChains: reverse})
				_, v, _ := testMount(t, img)

				file, err := v.Root().Find(tt.path)
				require.NoError(t, err)

				var got []byte
				buf := make([]byte, tt.bufSize)
				for {
					n, err := file.Read(buf)
					got = append(got, buf[:n]...)
					if err == io.EOF {
						assert.Zero(t, n)
						break
					}
					require.NoError(t, err)
					require.NotZero(t, n)
				}

				assert.Equal(t, tt.want, string(got))
				assert.Equal(t, uint32(len(tt.want)), file.Offset())
			})
		}
	}
}

func TestItem_Read_clamp(t *testing.T) {
	img, _ := testTree(fatimage.Options{})
	_, v, _ := testMount(t, img)

	file, err := v.Root().Find("hello.txt")
	require.NoError(t, err)

	// The cluster holds 512 bytes but only 11 belong to the file.
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	n, err = file.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	n, err = file.Read(nil)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)

	file.Rewind()
	n, err = file.Read(buf[:5])
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(buf[:n]))
}

func TestItem_Read_directory(t *testing.T) {
	img, _ := testTree(fatimage.Options{})
	_, v, _ := testMount(t, img)

	dir, err := v.Root().Find("dir")
	require.NoError(t, err)

	// Directories are read as raw records until their chain ends.
	raw, err := io.ReadAll(&dir)
	require.NoError(t, err)
	require.Len(t, raw, 512)
	assert.Equal(t, ".          ", string(raw[:11]))
	assert.Equal(t, "..         ", string(raw[32:43]))
}

func TestItem_Read_sectorReads(t *testing.T) {
	img, nodes := testTree(fatimage.Options{})
	_, v, layout := testMount(t, img)
	raw, _ := img.Build()

	file, err := v.Root().Find("dir/long.txt")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockSectorReader(ctrl)
	v.reader = reader

	// Every data sector is read exactly once, the FAT sector once for the whole chain.
	clusters := nodes["/dir/long.txt"].Clusters()
	reader.EXPECT().ReadSector(0, layout.FATSector(clusters[0]), gomock.Any()).DoAndReturn(imageReader(raw)).Times(1)
	for _, c := range clusters {
		reader.EXPECT().ReadSector(0, layout.ClusterSector(c), gomock.Any()).DoAndReturn(imageReader(raw)).Times(1)
	}

	buf := make([]byte, 10)
	var got []byte
	for {
		n, err := file.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, longText, string(got))
}

func TestItem_Read_brokenChain(t *testing.T) {
	img, nodes := testTree(fatimage.Options{})
	raw, layout := img.Build()

	// Point the first link of long.txt behind the data area.
	first := nodes["/dir/long.txt"].Clusters()[0]
	for i := uint32(0); i < 2; i++ {
		off := (layout.FATStart+i*layout.FATSectors)*512 + first*4
		raw[off], raw[off+1], raw[off+2], raw[off+3] = 0xF0, 0xFF, 0xFF, 0x0F
	}

	r := NewRegistry(testDevices(t, raw))
	require.NoError(t, r.Mount(0, 'A'))

	file, err := r.Open("A:/dir/long.txt")
	require.NoError(t, err)

	got, err := io.ReadAll(&file)
	require.NoError(t, err)
	assert.Equal(t, longText[:512], string(got))
}

func TestItem_ReadEntry_cyclicChain(t *testing.T) {
	// LOOP fills exactly one cluster, its FAT link points back to the same cluster.
	img := fatimage.New(fatimage.Options{})
	loop := img.Root().Dir("LOOP")
	var want []string
	want = append(want, ".", "..")
	for i := 0; i < 14; i++ {
		loop.File(fmt.Sprintf("F%02d", i), nil)
		want = append(want, fmt.Sprintf("f%02d", i))
	}
	raw, layout := img.Build()
	require.Len(t, loop.Clusters(), 1)

	cluster := loop.Clusters()[0]
	for i := uint32(0); i < 2; i++ {
		off := (layout.FATStart+i*layout.FATSectors)*512 + cluster*4
		raw[off], raw[off+1], raw[off+2], raw[off+3] = byte(cluster), byte(cluster>>8), byte(cluster>>16), byte(cluster>>24)
	}

	r := NewRegistry(testDevices(t, raw))
	require.NoError(t, r.Mount(0, 'A'))

	var (
		findErr error
		got     []string
		content []byte
		walkErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)

		_, findErr = r.Open("/loop/nope.txt")

		dir, err := r.Open("/loop")
		if err != nil {
			walkErr = err
			return
		}
		for {
			entry, err := dir.ReadEntry()
			if err == io.EOF {
				break
			}
			if err != nil {
				walkErr = err
				return
			}
			got = append(got, entry.Name())
		}

		dir.Rewind()
		content, walkErr = io.ReadAll(&dir)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("walking a cyclic directory chain did not end")
	}

	assert.ErrorIs(t, findErr, ErrPathNotFound)
	require.NoError(t, walkErr)

	// The cycle is followed until the chain is as long as the data area, then it ends.
	require.Len(t, got, 16*int(layout.ClusterCount))
	assert.Equal(t, want, got[:len(want)])
	assert.Len(t, content, 512*int(layout.ClusterCount))
}
