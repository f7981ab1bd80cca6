// Command tinyfat lists and reads files of FAT32 disk images.
//
//	tinyfat --image A=disk.img ls A:/
//	tinyfat --image A=disk.img cat /docs/readme.txt
//	tinyfat --config tinyfat.yaml info --format yaml
package main

import (
	"os"

	"github.com/aligator/tinyfat"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode turns the error code of err into a process exit status.
func exitCode(err error) int {
	code := tinyfat.ErrorCode(err)
	switch code {
	case tinyfat.CodeOK:
		return 0
	case tinyfat.CodeUnknown:
		return 1
	}
	return -code
}
