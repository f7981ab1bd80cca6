package tinyfat

import (
	"errors"
	"io"
)

// These errors may occur while mounting volumes or walking their content.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoFreeVolume        = errors.New("no free volume slot")
	ErrLabelInUse          = errors.New("volume label already in use")
	ErrNoFAT32Partition    = errors.New("no FAT32 LBA partition found")
	ErrInvalidBootSector   = errors.New("invalid FAT32 boot sector")
	ErrNotMounted          = errors.New("no volume mounted for device")
	ErrPathInvalid         = errors.New("invalid path")
	ErrPathNotFound        = errors.New("path not found")
	ErrNotADirectory       = errors.New("path component is not a directory")
	ErrNotDirectory        = errors.New("item is not a directory")
	ErrLongNameUnsupported = errors.New("long file names are not supported")
	ErrDeviceRead          = errors.New("could not read sector from device")
)

// Codes returned by ErrorCode.
const (
	CodeOK                  = 0
	CodeInvalidArgument     = -1
	CodeNoFAT32Partition    = -2
	CodeNoFreeVolume        = -3
	CodeNotMounted          = -4
	CodePathInvalid         = -5
	CodePathNotFound        = -6
	CodeLabelInUse          = -7
	CodeNotDirectory        = -8
	CodeLongNameUnsupported = -9
	CodeNotADirectory       = -10
	CodeDeviceRead          = -11
	CodeInvalidBootSector   = -12
	CodeUnknown             = -99
	CodeEndOfData           = -101
)

var errorCodes = []struct {
	err  error
	code int
}{
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrNoFAT32Partition, CodeNoFAT32Partition},
	{ErrNoFreeVolume, CodeNoFreeVolume},
	{ErrNotMounted, CodeNotMounted},
	{ErrPathInvalid, CodePathInvalid},
	{ErrPathNotFound, CodePathNotFound},
	{ErrLabelInUse, CodeLabelInUse},
	{ErrNotDirectory, CodeNotDirectory},
	{ErrLongNameUnsupported, CodeLongNameUnsupported},
	{ErrNotADirectory, CodeNotADirectory},
	{ErrDeviceRead, CodeDeviceRead},
	{ErrInvalidBootSector, CodeInvalidBootSector},
}

// ErrorCode maps err to the small signed code taxonomy used by embedded callers
// (and by the tinyfat command as its exit status).
// nil maps to CodeOK and io.EOF to CodeEndOfData.
func ErrorCode(err error) int {
	if err == nil {
		return CodeOK
	}
	if errors.Is(err, io.EOF) {
		return CodeEndOfData
	}

	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
