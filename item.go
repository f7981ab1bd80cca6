package tinyfat

import (
	"io"
	"math"
	"time"

	"github.com/aligator/tinyfat/checkpoint"
)

// Item is a file or a directory of a mounted volume together with a read cursor.
// It is a plain value: copies read independently, but all of them use the caches of
// their Volume and must not outlive it.
type Item struct {
	Attr         Attr
	Short        ShortName
	Size         uint32
	FirstCluster uint32
	Created      time.Time
	Modified     time.Time

	cluster uint32
	offset  uint32
	// links counts the FAT links followed from FirstCluster.
	links   uint32
	dirDone bool
	root    bool
	vol     *Volume
}

// Name returns the lower case 8.3 name of the item.
func (it Item) Name() string {
	return it.Short.Name()
}

func (it Item) IsDir() bool {
	return it.Attr.Has(AttrDirectory)
}

// Volume returns the volume the item belongs to.
func (it Item) Volume() *Volume {
	return it.vol
}

// Offset returns the number of bytes already consumed by reads.
func (it Item) Offset() uint32 {
	return it.offset
}

// Rewind moves the cursor back to the first byte.
func (it *Item) Rewind() {
	it.cluster = it.FirstCluster
	it.offset = 0
	it.links = 0
	it.dirDone = false
}

// prefetch makes the sector at the cursor available in the sector cache.
// Once a cluster is used up it follows the chain; false means the chain has ended.
// A chain cannot be longer than the data area, a link beyond that (a cycle) ends it.
func (it *Item) prefetch() (bool, error) {
	v := it.vol
	clusterOffset := it.offset % v.ClusterSize()
	cluster := it.cluster
	links := it.links

	if it.offset != 0 && clusterOffset == 0 {
		links++
		if links >= v.clusterCount {
			return false, nil
		}
		next, err := v.nextCluster(cluster)
		if err != nil {
			return false, err
		}
		cluster = next
	}

	if !v.validCluster(cluster) {
		return false, nil
	}

	if err := v.loadSector(v.clusterSector(cluster, clusterOffset)); err != nil {
		return false, err
	}

	it.cluster = cluster
	it.links = links
	return true, nil
}

// ReadEntry returns the next entry of the directory.
// Deleted entries and long name fragments are skipped. At the end of the directory io.EOF
// is returned, also for all later calls until Rewind.
func (it *Item) ReadEntry() (Item, error) {
	if !it.IsDir() {
		return Item{}, checkpoint.New(ErrNotDirectory)
	}

	for !it.dirDone {
		ok, err := it.prefetch()
		if err != nil {
			return Item{}, err
		}
		if !ok {
			it.dirDone = true
			break
		}

		pos := it.offset % uint32(it.vol.sectorSize)
		kind, entry := decodeEntry(it.vol.sector.buf[pos : pos+dirEntrySize])
		it.offset += dirEntrySize

		switch kind {
		case entryEmpty:
			it.dirDone = true
		case entryShort:
			entry.vol = it.vol
			return entry, nil
		}
	}

	return Item{}, io.EOF
}

// ReadDir reads up to n entries of the directory, like os.File.Readdir:
// for n > 0 an empty directory rest yields io.EOF, for n <= 0 all remaining entries are
// returned with a nil error.
func (it *Item) ReadDir(n int) ([]Item, error) {
	var entries []Item
	for n <= 0 || len(entries) < n {
		entry, err := it.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}

	if n > 0 && len(entries) == 0 {
		return nil, io.EOF
	}
	return entries, nil
}

// Read reads the next bytes of the item into p. For files the read stops at the file size,
// directories are read until their cluster chain ends.
// Reaching the end is not an error unless nothing could be read at all, then io.EOF is returned.
func (it *Item) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	size := uint32(math.MaxUint32)
	if uint64(len(p)) < math.MaxUint32 {
		size = uint32(len(p))
	}

	if !it.IsDir() {
		remaining := uint32(0)
		if it.Size > it.offset {
			remaining = it.Size - it.offset
		}
		if size > remaining {
			size = remaining
		}
	}

	v := it.vol
	sectorSize := uint32(v.sectorSize)
	var n uint32
	for size > 0 {
		ok, err := it.prefetch()
		if err != nil {
			return int(n), err
		}
		if !ok {
			break
		}

		pos := it.offset % sectorSize
		chunk := sectorSize - pos
		if chunk > size {
			chunk = size
		}

		copy(p[n:n+chunk], v.sector.buf[pos:pos+chunk])
		it.offset += chunk
		n += chunk
		size -= chunk
	}

	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}
