package tinyfat

import (
	"bytes"
	"encoding/binary"
)

// entryKind tells what a 32 byte directory record holds.
type entryKind uint8

const (
	// entryShort is a regular short name entry.
	entryShort entryKind = iota
	// entryEmpty marks the end of the directory, nothing valid follows it.
	entryEmpty
	// entryDeleted is a removed entry.
	entryDeleted
	// entryLongName is a fragment of a long file name.
	entryLongName
)

const deletedMarker = 0xE5

func (k entryKind) String() string {
	switch k {
	case entryShort:
		return "short"
	case entryEmpty:
		return "empty"
	case entryDeleted:
		return "deleted"
	case entryLongName:
		return "long name"
	}
	return "unknown"
}

// decodeEntry decodes a raw directory record.
// Only entryShort comes with an Item; its volume is left for the caller to set.
//
// The end of a directory is marked by attribute 0, and also by a first name byte 0
// as FAT defines it: a record starting with 0 is empty even when its attribute is set.
func decodeEntry(raw []byte) (entryKind, Item) {
	attr := Attr(raw[11])

	switch {
	case attr == 0 || raw[0] == 0x00:
		return entryEmpty, Item{}
	case raw[0] == deletedMarker:
		return entryDeleted, Item{}
	case attr.Has(AttrLongName):
		return entryLongName, Item{}
	}

	var header EntryHeader
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
		// A truncated record cannot be followed by anything valid either.
		return entryEmpty, Item{}
	}

	cluster := uint32(header.FirstClusterHI)<<16 | uint32(header.FirstClusterLO)

	return entryShort, Item{
		Attr:         attr,
		Short:        header.Name,
		Size:         header.FileSize,
		FirstCluster: cluster,
		Created:      parseTimestamp(header.CreateDate, header.CreateTime),
		Modified:     parseTimestamp(header.WriteDate, header.WriteTime),
		cluster:      cluster,
	}
}
