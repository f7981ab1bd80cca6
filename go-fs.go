package tinyfat

import (
	"github.com/spf13/afero"
)

// NewIOFS exposes a volume as io/fs.FS (including fs.ReadDirFS and fs.StatFS)
// by wrapping its Fs in the afero compatibility layer.
func NewIOFS(fs *Fs) afero.IOFS {
	return afero.NewIOFS(fs)
}

// IOFS returns the io/fs.FS of the volume mounted with label.
// May return ErrNotMounted.
func (r *Registry) IOFS(label byte) (afero.IOFS, error) {
	fs, err := r.Fs(label)
	if err != nil {
		return afero.IOFS{}, err
	}
	return NewIOFS(fs), nil
}
