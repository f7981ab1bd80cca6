package tinyfat

import (
	"os"
	"time"
)

// FileInfo describes the item as os.FileInfo. Sys returns the Item itself.
func (it Item) FileInfo() os.FileInfo {
	return itemFileInfo{it}
}

type itemFileInfo struct {
	item Item
}

func (e itemFileInfo) Name() string {
	if e.item.root {
		return "/"
	}
	return e.item.Name()
}

func (e itemFileInfo) Size() int64 {
	return int64(e.item.Size)
}

// Mode is always read-only, the read-only attribute adds nothing to that.
func (e itemFileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (e itemFileInfo) ModTime() time.Time {
	return e.item.Modified
}

func (e itemFileInfo) IsDir() bool {
	return e.item.IsDir()
}

func (e itemFileInfo) Sys() interface{} {
	return e.item
}
