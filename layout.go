// File layout contains the byte offsets and raw structures of the on-disk FAT32 format.

package tinyfat

import (
	"github.com/diskfs/go-diskfs/partition/mbr"
)

// defaultSectorSize is used to read the partition table and the boot sector
// before the real sector size is known.
const defaultSectorSize = 512

// Partition table (sector 0).
const (
	mbrTableOffset   = 446
	mbrEntrySize     = 16
	mbrEntryCount    = 4
	mbrEntryTypeOff  = 4
	mbrEntryStartOff = 8
	mbrFat32LBA      = byte(mbr.Fat32LBA)
)

// Boot sector (BPB) fields as offset/size pairs.
const (
	bpbBytsPerSec  = 11
	bpbSecPerClus  = 13
	bpbRsvdSecCnt  = 14
	bpbNumFATs     = 16
	bpbTotSec32    = 32
	bpbFATSz32     = 36
	bpbFSInfo      = 48
	fsiFreeCount   = 488
	fsiNxtFree     = 492
	dirEntrySize   = 32
	fatEntrySize   = 4
	fatEntryMask   = 0x0FFFFFFF
	clusterEOCMin  = 0x0FFFFFF8
	firstCluster   = 2
	maxClusterSize = 32 * 1024
)

// RootCluster is the cluster the root directory of a mounted volume starts at.
// A ".." entry pointing to cluster 0 refers to it as well.
const RootCluster = firstCluster

// leValue reads a little endian unsigned integer of size (1 to 4) bytes
// starting at off.
func leValue(block []byte, off, size int) uint32 {
	var value uint32
	for i := 0; i < size; i++ {
		value |= uint32(block[off+i]) << (8 * i)
	}
	return value
}

// EntryHeader is the raw 32 byte short name directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// Attr is the attribute byte of a directory entry.
type Attr uint8

const (
	AttrReadOnly  Attr = 0x01
	AttrHidden    Attr = 0x02
	AttrSystem    Attr = 0x04
	AttrVolumeID  Attr = 0x08
	AttrDirectory Attr = 0x10
	AttrArchive   Attr = 0x20
	AttrLongName       = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// Has reports whether all bits of mask are set.
func (a Attr) Has(mask Attr) bool {
	return a&mask == mask
}

func (a Attr) String() string {
	const flags = "RHSVDA"
	b := []byte("------")
	for i := range flags {
		if a&(1<<uint(i)) != 0 {
			b[i] = flags[i]
		}
	}
	return string(b)
}
