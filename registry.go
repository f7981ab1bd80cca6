// Package tinyfat reads FAT32 volumes from sector addressed devices.
// Volumes are mounted into a Registry under a single character label and
// walked as Items, or through the read-only afero.Fs and io/fs views.
package tinyfat

//go:generate go run ./cmd/generate

import (
	"fmt"
	"io"

	"github.com/aligator/tinyfat/checkpoint"
	"github.com/sirupsen/logrus"
)

// DefaultCapacity is the number of volumes a Registry can hold unless WithCapacity is used.
const DefaultCapacity = 4

// Registry owns a fixed number of volume slots. Volumes are mounted into free slots
// and unmounting frees the slot again.
// A Registry is not safe for concurrent use.
type Registry struct {
	reader         SectorReader
	log            logrus.FieldLogger
	partitionTable bool
	slots          []*Volume
}

// Option configures a Registry.
type Option func(r *Registry)

// WithCapacity sets the number of volume slots.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n < 0 {
			n = 0
		}
		r.slots = make([]*Volume, n)
	}
}

// WithoutPartitionTable mounts devices which start directly with the FAT32 boot sector
// instead of a partition table.
func WithoutPartitionTable() Option {
	return func(r *Registry) {
		r.partitionTable = false
	}
}

// WithLogger sets the logger used for debug and trace output.
// A nil logger keeps the default, which discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates a Registry reading all sectors through reader.
func NewRegistry(reader SectorReader, opts ...Option) *Registry {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	r := &Registry{
		reader:         reader,
		log:            silent,
		partitionTable: true,
		slots:          make([]*Volume, DefaultCapacity),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount mounts the first FAT32 LBA partition of device dev with the given label.
// May return ErrInvalidArgument, ErrLabelInUse, ErrNoFreeVolume, ErrNoFAT32Partition,
// ErrInvalidBootSector or ErrDeviceRead. On error no slot is used.
func (r *Registry) Mount(dev int, label byte) error {
	if label == 0 || r.reader == nil {
		return checkpoint.New(ErrInvalidArgument)
	}

	free := -1
	for i, v := range r.slots {
		if v == nil {
			if free < 0 {
				free = i
			}
			continue
		}
		if v.label == label {
			return checkpoint.Wrap(fmt.Errorf("label %q", label), ErrLabelInUse)
		}
	}
	if free < 0 {
		return checkpoint.New(ErrNoFreeVolume)
	}

	log := r.log.WithFields(logrus.Fields{"device": dev, "label": string(label)})
	v := newVolume(dev, label, r.reader, log)
	if err := v.load(r.partitionTable); err != nil {
		return err
	}

	r.slots[free] = v
	log.WithFields(logrus.Fields{
		"sectorSize":        v.sectorSize,
		"sectorsPerCluster": v.sectorsPerCluster,
		"clusters":          v.clusterCount,
	}).Debug("volume mounted")

	return nil
}

// Unmount frees the slot of the volume mounted from dev.
// May return ErrNotMounted.
func (r *Registry) Unmount(dev int) error {
	for i, v := range r.slots {
		if v != nil && v.dev == dev {
			r.slots[i] = nil
			r.log.WithFields(logrus.Fields{"device": dev, "label": string(v.label)}).Debug("volume unmounted")
			return nil
		}
	}
	return checkpoint.Wrap(fmt.Errorf("device %d", dev), ErrNotMounted)
}

// Volume returns the volume mounted with label.
func (r *Registry) Volume(label byte) (*Volume, error) {
	v := r.find(label)
	if v == nil {
		return nil, checkpoint.Wrap(fmt.Errorf("label %q", label), ErrNotMounted)
	}
	return v, nil
}

// Volumes returns all mounted volumes in slot order.
func (r *Registry) Volumes() []*Volume {
	var volumes []*Volume
	for _, v := range r.slots {
		if v != nil {
			volumes = append(volumes, v)
		}
	}
	return volumes
}

func (r *Registry) find(label byte) *Volume {
	if label == 0 {
		return nil
	}
	for _, v := range r.slots {
		if v != nil && v.label == label {
			return v
		}
	}
	return nil
}

func (r *Registry) first() *Volume {
	for _, v := range r.slots {
		if v != nil {
			return v
		}
	}
	return nil
}
