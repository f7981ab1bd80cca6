package tinyfat

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func rawEntry(name string, attr Attr, cluster, size uint32) []byte {
	raw := make([]byte, dirEntrySize)
	copy(raw, name)
	raw[11] = byte(attr)
	// 2021-06-15 10:30:20 as write time, 2020-01-02 03:04:06 as creation time.
	binary.LittleEndian.PutUint16(raw[14:], 3<<11|4<<5|3)
	binary.LittleEndian.PutUint16(raw[16:], 40<<9|1<<5|2)
	binary.LittleEndian.PutUint16(raw[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(raw[22:], 10<<11|30<<5|10)
	binary.LittleEndian.PutUint16(raw[24:], 41<<9|6<<5|15)
	binary.LittleEndian.PutUint16(raw[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(raw[28:], size)
	return raw
}

func Test_decodeEntry(t *testing.T) {
	created := time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC)
	modified := time.Date(2021, 6, 15, 10, 30, 20, 0, time.UTC)

	deleted := rawEntry("HELLO   TXT", AttrArchive, 5, 11)
	deleted[0] = deletedMarker

	nulled := rawEntry("HELLO   TXT", AttrArchive, 5, 11)
	nulled[0] = 0

	tests := []struct {
		name     string
		raw      []byte
		wantKind entryKind
		want     Item
	}{
		{
			name:     "file",
			raw:      rawEntry("HELLO   TXT", AttrArchive, 5, 11),
			wantKind: entryShort,
			want: Item{
				Attr:         AttrArchive,
				Short:        NameToShort("hello.txt"),
				Size:         11,
				FirstCluster: 5,
				Created:      created,
				Modified:     modified,
				cluster:      5,
			},
		},
		{
			name:     "directory with high cluster word",
			raw:      rawEntry("DIR        ", AttrDirectory, 0x00030004, 0),
			wantKind: entryShort,
			want: Item{
				Attr:         AttrDirectory,
				Short:        NameToShort("dir"),
				FirstCluster: 0x00030004,
				Created:      created,
				Modified:     modified,
				cluster:      0x00030004,
			},
		},
		{
			name:     "volume label",
			raw:      rawEntry("TESTVOL    ", AttrVolumeID, 0, 0),
			wantKind: entryShort,
			want: Item{
				Attr:     AttrVolumeID,
				Short:    NameToShort("testvol"),
				Created:  created,
				Modified: modified,
			},
		},
		{
			name:     "attribute 0 ends the directory",
			raw:      rawEntry("GHOST   TXT", 0, 7, 3),
			wantKind: entryEmpty,
		},
		{
			name:     "name byte 0 ends the directory",
			raw:      nulled,
			wantKind: entryEmpty,
		},
		{
			name:     "deleted",
			raw:      deleted,
			wantKind: entryDeleted,
		},
		{
			name:     "long name fragment",
			raw:      rawEntry("\x41h\x00e\x00l\x00l\x00o\x00", AttrLongName, 0, 0xFFFFFFFF),
			wantKind: entryLongName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, got := decodeEntry(tt.raw)
			if kind != tt.wantKind {
				t.Errorf("decodeEntry() kind = %v, want %v", kind, tt.wantKind)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Item{})); diff != "" {
				t.Errorf("decodeEntry() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttr_String(t *testing.T) {
	tests := []struct {
		attr Attr
		want string
	}{
		{0, "------"},
		{AttrArchive, "-----A"},
		{AttrDirectory | AttrHidden, "-H--D-"},
		{AttrLongName, "RHSV--"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.attr.String(); got != tt.want {
				t.Errorf("Attr.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
