package tinyfat

import (
	"fmt"
	"io"
	"strings"

	"github.com/aligator/tinyfat/checkpoint"
)

// Find resolves subpath relative to the directory it.
// subpath uses '/' as separator and must not start with one; "." and ".." are looked up like
// any other name. An empty subpath (or a trailing separator) resolves to the directory itself.
//
// it is a copy, so neither the caller's item nor its cursor is touched, and the search always
// starts at the beginning of the directory.
func (it Item) Find(subpath string) (Item, error) {
	if !it.IsDir() {
		return Item{}, checkpoint.New(ErrNotDirectory)
	}

	dir := it
	dir.Rewind()

	for {
		if subpath == "" {
			return dir, nil
		}

		if subpath[0] == '/' {
			return Item{}, checkpoint.Wrap(fmt.Errorf("empty path component in %q", subpath), ErrPathInvalid)
		}

		name, rest, more := strings.Cut(subpath, "/")
		if len(name) > maxSegmentLen {
			return Item{}, checkpoint.Wrap(fmt.Errorf("%q", name), ErrLongNameUnsupported)
		}

		found, err := dir.lookup(NameToShort(name))
		if err == io.EOF {
			return Item{}, checkpoint.Wrap(fmt.Errorf("%q", name), ErrPathNotFound)
		}
		if err != nil {
			return Item{}, err
		}

		// FAT32 stores the root as cluster 0 in ".." entries.
		if name == ".." && found.FirstCluster == 0 {
			found.FirstCluster = RootCluster
			found.cluster = RootCluster
			found.root = true
		}

		if !more {
			return found, nil
		}

		if !found.IsDir() {
			return Item{}, checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotADirectory)
		}

		dir = found
		subpath = rest
	}
}

// lookup scans the directory from its cursor for an entry named short.
// io.EOF means there is none.
func (it *Item) lookup(short ShortName) (Item, error) {
	for {
		entry, err := it.ReadEntry()
		if err != nil {
			return Item{}, err
		}
		if entry.Short == short {
			return entry, nil
		}
	}
}

// Open resolves an absolute path. "/a/b" is looked up on the first mounted volume,
// "X:/a/b" on the volume mounted with label 'X'.
func (r *Registry) Open(path string) (Item, error) {
	var (
		vol     *Volume
		subpath string
	)

	switch {
	case path == "":
		return Item{}, checkpoint.New(ErrPathInvalid)
	case path[0] == '/':
		vol = r.first()
		subpath = path[1:]
	case len(path) >= 3 && path[1] == ':' && path[2] == '/':
		vol = r.find(path[0])
		subpath = path[3:]
	default:
		return Item{}, checkpoint.Wrap(fmt.Errorf("%q is not absolute", path), ErrPathInvalid)
	}

	if vol == nil {
		return Item{}, checkpoint.Wrap(fmt.Errorf("no volume for %q", path), ErrPathNotFound)
	}

	r.log.WithField("path", path).Debug("open")
	return vol.Root().Find(subpath)
}
