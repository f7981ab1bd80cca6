package tinyfat

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/tinyfat/checkpoint"
	"github.com/sirupsen/logrus"
)

// SectorReader reads single sectors from block devices.
// buf always has the length of one sector of the mounted volume and must be filled completely.
// Generated mock using mockgen:
//
//	mockgen -source=volume.go -destination=sectorreader_mock_test.go -package tinyfat
type SectorReader interface {
	ReadSector(dev int, sector uint32, buf []byte) error
}

// sectorCache holds the sector read last.
type sectorCache struct {
	id    uint32
	buf   []byte
	valid bool
}

// fatWindow holds one FAT sector, decoded into cluster links.
// start is the first cluster the window covers and is always a multiple of len(links).
type fatWindow struct {
	start uint32
	raw   []byte
	links []uint32
	valid bool
}

// Volume is a mounted FAT32 volume.
// It is not safe for concurrent use, Items sharing a Volume share its caches.
type Volume struct {
	dev    int
	label  byte
	reader SectorReader
	log    logrus.FieldLogger

	sectorSize        uint16
	sectorsPerCluster uint8
	totalSectors      uint32
	partitionStart    uint32
	fatStart          uint32
	dataStart         uint32
	clusterCount      uint32

	// Advisory only, taken from the FSInfo sector.
	freeClusters    uint32
	nextFreeCluster uint32

	sector sectorCache
	fat    fatWindow
}

func newVolume(dev int, label byte, reader SectorReader, log logrus.FieldLogger) *Volume {
	return &Volume{
		dev:        dev,
		label:      label,
		reader:     reader,
		log:        log,
		sectorSize: defaultSectorSize,
		sector: sectorCache{
			buf: make([]byte, defaultSectorSize),
		},
	}
}

// Label returns the label the volume is mounted with.
func (v *Volume) Label() byte { return v.label }

// Device returns the device id the volume was mounted from.
func (v *Volume) Device() int { return v.dev }

func (v *Volume) SectorSize() uint16       { return v.sectorSize }
func (v *Volume) SectorsPerCluster() uint8 { return v.sectorsPerCluster }
func (v *Volume) TotalSectors() uint32     { return v.totalSectors }
func (v *Volume) PartitionStart() uint32   { return v.partitionStart }
func (v *Volume) ClusterCount() uint32     { return v.clusterCount }

// FreeClusters returns the free cluster hint of the FSInfo sector.
// 0xFFFFFFFF means unknown.
func (v *Volume) FreeClusters() uint32 { return v.freeClusters }

// NextFreeCluster returns the next free cluster hint of the FSInfo sector.
// 0xFFFFFFFF means unknown.
func (v *Volume) NextFreeCluster() uint32 { return v.nextFreeCluster }

// ClusterSize returns the size of a cluster in bytes.
func (v *Volume) ClusterSize() uint32 {
	return uint32(v.sectorSize) * uint32(v.sectorsPerCluster)
}

// Root returns the root directory of the volume.
func (v *Volume) Root() Item {
	short := NameToShort("")
	short[0] = v.label

	return Item{
		Attr:         AttrDirectory,
		Short:        short,
		FirstCluster: RootCluster,
		cluster:      RootCluster,
		root:         true,
		vol:          v,
	}
}

// load reads the partition table, the boot sector and the FSInfo sector and derives the layout.
func (v *Volume) load(partitionTable bool) error {
	var start uint32

	if partitionTable {
		if err := v.loadSector(0); err != nil {
			return err
		}

		found := false
		for i := 0; i < mbrEntryCount; i++ {
			entry := mbrTableOffset + i*mbrEntrySize
			if byte(leValue(v.sector.buf, entry+mbrEntryTypeOff, 1)) == mbrFat32LBA {
				start = leValue(v.sector.buf, entry+mbrEntryStartOff, 4)
				found = true
				break
			}
		}
		if !found {
			return checkpoint.New(ErrNoFAT32Partition)
		}
	}

	if err := v.loadSector(start); err != nil {
		return err
	}

	bs := v.sector.buf
	sectorSize := uint16(leValue(bs, bpbBytsPerSec, 2))
	sectorsPerCluster := uint8(leValue(bs, bpbSecPerClus, 1))
	reserved := uint16(leValue(bs, bpbRsvdSecCnt, 2))
	numFATs := uint8(leValue(bs, bpbNumFATs, 1))
	totalSectors := leValue(bs, bpbTotSec32, 4)
	fatSize := leValue(bs, bpbFATSz32, 4)
	fsInfo := uint16(leValue(bs, bpbFSInfo, 2))

	// FAT only supports 512, 1024, 2048 and 4096.
	if sectorSize != 512 && sectorSize != 1024 && sectorSize != 2048 && sectorSize != 4096 {
		return checkpoint.Wrap(fmt.Errorf("sector size %d", sectorSize), ErrInvalidBootSector)
	}

	// Sectors per cluster has to be a power of two and greater than 0.
	if sectorsPerCluster == 0 || sectorsPerCluster&(sectorsPerCluster-1) != 0 ||
		uint32(sectorSize)*uint32(sectorsPerCluster) > maxClusterSize {
		return checkpoint.Wrap(fmt.Errorf("sectors per cluster %d", sectorsPerCluster), ErrInvalidBootSector)
	}

	if reserved == 0 || numFATs == 0 || fatSize == 0 {
		return checkpoint.Wrap(fmt.Errorf("reserved %d, FATs %d, FAT size %d", reserved, numFATs, fatSize), ErrInvalidBootSector)
	}

	systemSectors := uint32(reserved) + fatSize*uint32(numFATs)
	if totalSectors <= systemSectors {
		return checkpoint.Wrap(fmt.Errorf("total sectors %d", totalSectors), ErrInvalidBootSector)
	}

	// The partition table counts in 512 byte sectors, the layout in sectors of the volume.
	if uint64(start)*defaultSectorSize%uint64(sectorSize) != 0 {
		return checkpoint.Wrap(fmt.Errorf("partition start %d not aligned to sector size %d", start, sectorSize), ErrInvalidBootSector)
	}
	start = uint32(uint64(start) * defaultSectorSize / uint64(sectorSize))

	v.partitionStart = start
	v.sectorsPerCluster = sectorsPerCluster
	v.totalSectors = totalSectors
	v.fatStart = start + uint32(reserved)
	v.dataStart = v.fatStart + fatSize*uint32(numFATs)
	v.clusterCount = (totalSectors - systemSectors) / uint32(sectorsPerCluster)

	if sectorSize != v.sectorSize {
		v.sectorSize = sectorSize
		v.sector = sectorCache{buf: make([]byte, sectorSize)}
	}
	v.fat = fatWindow{
		raw:   make([]byte, sectorSize),
		links: make([]uint32, sectorSize/fatEntrySize),
	}

	v.freeClusters = 0xFFFFFFFF
	v.nextFreeCluster = 0xFFFFFFFF

	// The FSInfo sector lives in the reserved area, 0 and 0xFFFF mean there is none.
	if fsInfo != 0 && fsInfo < reserved {
		if err := v.loadSector(start + uint32(fsInfo)); err != nil {
			return err
		}
		v.freeClusters = leValue(v.sector.buf, fsiFreeCount, 4)
		v.nextFreeCluster = leValue(v.sector.buf, fsiNxtFree, 4)
	}

	return nil
}

// loadSector makes sector the content of the sector cache.
// The device is only read if another sector is cached.
func (v *Volume) loadSector(sector uint32) error {
	if v.sector.valid && v.sector.id == sector {
		return nil
	}

	v.sector.valid = false
	if err := v.reader.ReadSector(v.dev, sector, v.sector.buf); err != nil {
		return checkpoint.Wrap(fmt.Errorf("sector %d: %w", sector, err), ErrDeviceRead)
	}
	v.log.WithField("sector", sector).Trace("sector cache filled")

	v.sector.id = sector
	v.sector.valid = true
	return nil
}

// nextCluster looks up the FAT link of cluster.
// It does not check the link, use validCluster for that.
func (v *Volume) nextCluster(cluster uint32) (uint32, error) {
	perSector := uint32(len(v.fat.links))

	if !v.fat.valid || cluster < v.fat.start || cluster-v.fat.start >= perSector {
		start := cluster - cluster%perSector
		sector := v.fatStart + start/perSector

		v.fat.valid = false
		if err := v.reader.ReadSector(v.dev, sector, v.fat.raw); err != nil {
			return 0, checkpoint.Wrap(fmt.Errorf("FAT sector %d: %w", sector, err), ErrDeviceRead)
		}
		for i := range v.fat.links {
			v.fat.links[i] = binary.LittleEndian.Uint32(v.fat.raw[i*fatEntrySize:]) & fatEntryMask
		}
		v.log.WithFields(logrus.Fields{"sector": sector, "start": start}).Trace("FAT window filled")

		v.fat.start = start
		v.fat.valid = true
	}

	return v.fat.links[cluster-v.fat.start], nil
}

// validCluster reports whether cluster continues a chain.
// End of chain markers, bad clusters and links out of the data area all end it.
func (v *Volume) validCluster(cluster uint32) bool {
	return cluster >= firstCluster && cluster < clusterEOCMin && cluster-firstCluster < v.clusterCount
}

// clusterSector returns the sector holding byte offset of cluster.
func (v *Volume) clusterSector(cluster, offset uint32) uint32 {
	return v.dataStart + uint32(v.sectorsPerCluster)*(cluster-firstCluster) + offset/uint32(v.sectorSize)
}
