// Package fatimage builds small FAT32 disk images in memory.
// It exists for tests: the images contain exactly the entries they are given,
// including deleted records, long name fragments and end markers.
package fatimage

import (
	"encoding/binary"
	"strings"
	"time"
)

// Attribute bits of directory entries.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = 0x0F
)

const (
	entrySize  = 32
	endOfChain = 0x0FFFFFFF
	mediaEntry = 0x0FFFFFF8
	rootClust  = 2
)

// DefaultTime is used for all timestamps that are not set explicitly.
var DefaultTime = time.Date(2021, time.June, 15, 10, 30, 20, 0, time.UTC)

// Options describe the geometry of the image. Zero values are replaced by defaults.
type Options struct {
	SectorSize        uint16 // 512
	SectorsPerCluster uint8  // 1
	ReservedSectors   uint16 // 32
	NumFATs           uint8  // 2
	SpareClusters     uint32 // 16 free clusters after the used ones

	// NoMBR omits the partition table, the image starts with the boot sector.
	NoMBR bool
	// PartitionStart is the first sector of the volume in sectors of SectorSize, 8 by default.
	PartitionStart uint32
	// PartitionSlot is the partition table entry (0-3) used for the volume.
	PartitionSlot int
	// PartitionType is written into the partition entry, 0x0C (FAT32 LBA) by default.
	PartitionType byte

	// ReverseChains allocates the clusters of every chain in descending order,
	// so that a chain can only be followed through the FAT.
	ReverseChains bool

	VolumeLabel string

	FreeClusters    uint32 // FSInfo free cluster count, 0xFFFFFFFF if 0
	NextFreeCluster uint32 // FSInfo next free cluster, 0xFFFFFFFF if 0
}

// Layout is where the parts of a built image ended up, in absolute sectors.
type Layout struct {
	SectorSize        uint16
	SectorsPerCluster uint8
	PartitionStart    uint32
	FATStart          uint32
	FATSectors        uint32
	DataStart         uint32
	TotalSectors      uint32
	ClusterCount      uint32
}

// ClusterSector returns the absolute sector of the first sector of cluster.
func (l Layout) ClusterSector(cluster uint32) uint32 {
	return l.DataStart + uint32(l.SectorsPerCluster)*(cluster-2)
}

// FATSector returns the absolute sector of the first FAT holding the link of cluster.
func (l Layout) FATSector(cluster uint32) uint32 {
	return l.FATStart + cluster*4/uint32(l.SectorSize)
}

// Node is a file or a directory of the image.
type Node struct {
	Name     string
	Attr     byte
	Data     []byte
	Created  time.Time
	Modified time.Time

	parent   *Node
	records  []record
	clusters []uint32
}

type record struct {
	node *Node
	raw  []byte
}

// Image collects the tree of an image until Build is called.
type Image struct {
	opts Options
	root *Node
}

// New creates an empty image.
func New(opts Options) *Image {
	if opts.SectorSize == 0 {
		opts.SectorSize = 512
	}
	if opts.SectorsPerCluster == 0 {
		opts.SectorsPerCluster = 1
	}
	if opts.ReservedSectors == 0 {
		opts.ReservedSectors = 32
	}
	if opts.NumFATs == 0 {
		opts.NumFATs = 2
	}
	if opts.SpareClusters == 0 {
		opts.SpareClusters = 16
	}
	if opts.PartitionStart == 0 && !opts.NoMBR {
		opts.PartitionStart = 8
	}
	if opts.NoMBR {
		opts.PartitionStart = 0
	}
	if opts.PartitionType == 0 {
		opts.PartitionType = 0x0C
	}
	if opts.FreeClusters == 0 {
		opts.FreeClusters = 0xFFFFFFFF
	}
	if opts.NextFreeCluster == 0 {
		opts.NextFreeCluster = 0xFFFFFFFF
	}

	img := &Image{
		opts: opts,
		root: &Node{Attr: AttrDirectory},
	}
	if opts.VolumeLabel != "" {
		img.root.Raw(entry(pad(opts.VolumeLabel, 11), AttrVolumeID, 0, 0, DefaultTime, DefaultTime))
	}
	return img
}

// Root returns the root directory.
func (img *Image) Root() *Node {
	return img.root
}

// Dir adds a sub directory, including its "." and ".." entries.
func (n *Node) Dir(name string) *Node {
	child := &Node{
		Name:     name,
		Attr:     AttrDirectory,
		Created:  DefaultTime,
		Modified: DefaultTime,
		parent:   n,
	}
	child.records = append(child.records, record{node: &Node{Name: ".", Attr: AttrDirectory, parent: child}})
	child.records = append(child.records, record{node: &Node{Name: "..", Attr: AttrDirectory, parent: child}})

	n.records = append(n.records, record{node: child})
	return child
}

// File adds a regular file with the archive attribute.
func (n *Node) File(name string, data []byte) *Node {
	child := &Node{
		Name:     name,
		Attr:     AttrArchive,
		Data:     data,
		Created:  DefaultTime,
		Modified: DefaultTime,
		parent:   n,
	}
	n.records = append(n.records, record{node: child})
	return child
}

// Raw adds a raw 32 byte record.
func (n *Node) Raw(raw []byte) *Node {
	rec := make([]byte, entrySize)
	copy(rec, raw)
	n.records = append(n.records, record{raw: rec})
	return n
}

// Deleted adds a deleted entry of name.
func (n *Node) Deleted(name string) *Node {
	rec := entry(shortName(name), AttrArchive, 0, 0, DefaultTime, DefaultTime)
	rec[0] = 0xE5
	return n.Raw(rec)
}

// LongNameFragment adds a long file name record holding up to 13 characters of text.
func (n *Node) LongNameFragment(seq byte, text string) *Node {
	rec := make([]byte, entrySize)
	rec[0] = seq
	rec[11] = AttrLongName

	// Characters are spread over 1-10, 14-25 and 28-31 as UTF-16.
	positions := []int{1, 3, 5, 7, 9, 14, 16, 18, 20, 22, 24, 28, 30}
	for i, pos := range positions {
		c := uint16(0xFFFF)
		if i < len(text) {
			c = uint16(text[i])
		} else if i == len(text) {
			c = 0
		}
		binary.LittleEndian.PutUint16(rec[pos:], c)
	}
	return n.Raw(rec)
}

// EndMarker adds a record with attribute byte 0, which ends the directory.
// name is still written, so that the record is not all zeros.
func (n *Node) EndMarker(name string) *Node {
	return n.Raw(entry(shortName(name), 0, 0, 0, DefaultTime, DefaultTime))
}

// FirstCluster returns the first cluster after Build, 0 for empty files.
func (n *Node) FirstCluster() uint32 {
	if n.Name == "." {
		return n.parent.FirstCluster()
	}
	if n.Name == ".." {
		if n.parent.parent == nil || n.parent.parent.parent == nil {
			return 0
		}
		return n.parent.parent.FirstCluster()
	}
	if len(n.clusters) == 0 {
		return 0
	}
	return n.clusters[0]
}

// Clusters returns the cluster chain after Build.
func (n *Node) Clusters() []uint32 {
	return n.clusters
}

// ShortName returns the 11 byte directory entry name of n.
func (n *Node) ShortName() [11]byte {
	return shortName(n.Name)
}

func (n *Node) isDir() bool {
	return n.Attr&AttrDirectory != 0
}

func (n *Node) isLink() bool {
	return n.Name == "." || n.Name == ".."
}

func (n *Node) content(clusterSize int) []byte {
	if !n.isDir() {
		return n.Data
	}

	b := make([]byte, 0, len(n.records)*entrySize)
	for _, r := range n.records {
		if r.raw != nil {
			b = append(b, r.raw...)
			continue
		}
		size := uint32(0)
		if !r.node.isDir() {
			size = uint32(len(r.node.Data))
		}
		b = append(b, entry(r.node.ShortName(), r.node.Attr, r.node.FirstCluster(), size, r.node.Created, r.node.Modified)...)
	}

	// A directory always owns at least one cluster.
	if len(b) == 0 {
		b = make([]byte, clusterSize)
	}
	return b
}

// Build lays out the image and returns its bytes.
func (img *Image) Build() ([]byte, Layout) {
	opts := img.opts
	clusterSize := int(opts.SectorSize) * int(opts.SectorsPerCluster)

	// Allocate clusters, root first so that it gets cluster 2.
	next := uint32(rootClust)
	var allocate func(n *Node)
	allocate = func(n *Node) {
		if n.isLink() {
			return
		}
		count := uint32(0)
		if n.isDir() {
			count = uint32((len(n.records)*entrySize + clusterSize - 1) / clusterSize)
			if count == 0 {
				count = 1
			}
		} else {
			count = uint32((len(n.Data) + clusterSize - 1) / clusterSize)
		}

		n.clusters = make([]uint32, count)
		for i := range n.clusters {
			if opts.ReverseChains {
				n.clusters[i] = next + count - 1 - uint32(i)
			} else {
				n.clusters[i] = next + uint32(i)
			}
		}
		next += count

		for _, r := range n.records {
			if r.node != nil {
				allocate(r.node)
			}
		}
	}
	allocate(img.root)

	clusterCount := next - rootClust + opts.SpareClusters
	fatSectors := ((clusterCount+2)*4 + uint32(opts.SectorSize) - 1) / uint32(opts.SectorSize)
	volumeSectors := uint32(opts.ReservedSectors) + fatSectors*uint32(opts.NumFATs) + clusterCount*uint32(opts.SectorsPerCluster)

	layout := Layout{
		SectorSize:        opts.SectorSize,
		SectorsPerCluster: opts.SectorsPerCluster,
		PartitionStart:    opts.PartitionStart,
		FATStart:          opts.PartitionStart + uint32(opts.ReservedSectors),
		FATSectors:        fatSectors,
		TotalSectors:      volumeSectors,
		ClusterCount:      clusterCount,
	}
	layout.DataStart = layout.FATStart + fatSectors*uint32(opts.NumFATs)

	ss := int(opts.SectorSize)
	image := make([]byte, (int(opts.PartitionStart)+int(volumeSectors))*ss)

	// The partition table always counts in 512 byte sectors.
	if !opts.NoMBR {
		pte := 446 + 16*opts.PartitionSlot
		image[pte+4] = opts.PartitionType
		scale := uint32(opts.SectorSize) / 512
		binary.LittleEndian.PutUint32(image[pte+8:], opts.PartitionStart*scale)
		binary.LittleEndian.PutUint32(image[pte+12:], volumeSectors*scale)
		binary.LittleEndian.PutUint16(image[510:], 0xAA55)
	}

	base := int(opts.PartitionStart) * ss
	bs := image[base : base+ss]
	copy(bs[0:3], []byte{0xEB, 0x58, 0x90})
	copy(bs[3:11], "TINYFAT ")
	binary.LittleEndian.PutUint16(bs[11:], opts.SectorSize)
	bs[13] = opts.SectorsPerCluster
	binary.LittleEndian.PutUint16(bs[14:], opts.ReservedSectors)
	bs[16] = opts.NumFATs
	bs[21] = 0xF8
	binary.LittleEndian.PutUint32(bs[28:], opts.PartitionStart)
	binary.LittleEndian.PutUint32(bs[32:], volumeSectors)
	binary.LittleEndian.PutUint32(bs[36:], fatSectors)
	binary.LittleEndian.PutUint32(bs[44:], rootClust)
	binary.LittleEndian.PutUint16(bs[48:], 1)
	binary.LittleEndian.PutUint16(bs[50:], 6)
	bs[66] = 0x29
	label := pad(opts.VolumeLabel, 11)
	if opts.VolumeLabel == "" {
		label = pad("NO NAME", 11)
	}
	copy(bs[71:82], label[:])
	copy(bs[82:90], "FAT32   ")
	binary.LittleEndian.PutUint16(bs[510:], 0xAA55)

	fsi := image[base+ss : base+2*ss]
	binary.LittleEndian.PutUint32(fsi[0:], 0x41615252)
	binary.LittleEndian.PutUint32(fsi[484:], 0x61417272)
	binary.LittleEndian.PutUint32(fsi[488:], opts.FreeClusters)
	binary.LittleEndian.PutUint32(fsi[492:], opts.NextFreeCluster)
	binary.LittleEndian.PutUint32(fsi[508:], 0xAA550000)

	fat := make([]byte, fatSectors*uint32(ss))
	binary.LittleEndian.PutUint32(fat[0:], mediaEntry)
	binary.LittleEndian.PutUint32(fat[4:], endOfChain)

	var write func(n *Node)
	write = func(n *Node) {
		if n.isLink() {
			return
		}
		for i, c := range n.clusters {
			link := uint32(endOfChain)
			if i+1 < len(n.clusters) {
				link = n.clusters[i+1]
			}
			binary.LittleEndian.PutUint32(fat[c*4:], link)
		}

		data := n.content(clusterSize)
		for i, c := range n.clusters {
			start := i * clusterSize
			if start >= len(data) {
				break
			}
			end := start + clusterSize
			if end > len(data) {
				end = len(data)
			}
			off := int(layout.ClusterSector(c)) * ss
			copy(image[off:], data[start:end])
		}

		for _, r := range n.records {
			if r.node != nil {
				write(r.node)
			}
		}
	}
	write(img.root)

	for i := 0; i < int(opts.NumFATs); i++ {
		off := int(layout.FATStart+uint32(i)*fatSectors) * ss
		copy(image[off:], fat)
	}

	return image, layout
}

func entry(name [11]byte, attr byte, cluster, size uint32, created, modified time.Time) []byte {
	rec := make([]byte, entrySize)
	copy(rec[0:11], name[:])
	rec[11] = attr
	binary.LittleEndian.PutUint16(rec[14:], packTime(created))
	binary.LittleEndian.PutUint16(rec[16:], packDate(created))
	binary.LittleEndian.PutUint16(rec[18:], packDate(modified))
	binary.LittleEndian.PutUint16(rec[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(rec[22:], packTime(modified))
	binary.LittleEndian.PutUint16(rec[24:], packDate(modified))
	binary.LittleEndian.PutUint16(rec[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(rec[28:], size)
	return rec
}

func packDate(t time.Time) uint16 {
	if t.IsZero() {
		return 0
	}
	return uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

func packTime(t time.Time) uint16 {
	if t.IsZero() {
		return 0
	}
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}

// shortName packs an 8.3 name like "FILE.TXT" into its 11 byte form.
func shortName(name string) [11]byte {
	if name == "." || name == ".." {
		return pad(name, 11)
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	b := pad(strings.ToUpper(base), 8)
	e := pad(strings.ToUpper(ext), 3)

	var out [11]byte
	copy(out[:8], b[:8])
	copy(out[8:], e[:3])
	return out
}

func pad(s string, n int) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:n], s)
	return out
}
