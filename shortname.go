package tinyfat

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	shortBaseLen = 8
	shortExtLen  = 3
	// ShortNameLen is the length of the name field of a directory entry.
	ShortNameLen = shortBaseLen + shortExtLen
	// maxSegmentLen is the longest path segment that may still fold into 8.3 ("NAME1234.EXT").
	maxSegmentLen = ShortNameLen + 1
)

// ShortName is an 8.3 name as it is stored in a directory entry:
// upper case, without the dot and padded with spaces.
type ShortName [ShortNameLen]byte

// NameToShort folds a path segment into its 8.3 form.
// "." and ".." are kept as they are. Everything else is split at the first dot,
// upper-cased and truncated to 8 characters of name and 3 characters of extension.
// Names which do not fit 8.3 are folded lossily but deterministically.
func NameToShort(name string) ShortName {
	var short ShortName
	for i := range short {
		short[i] = ' '
	}

	if name == "." || name == ".." {
		copy(short[:], name)
		return short
	}

	base, ext := name, ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}

	for i := 0; i < len(base) && i < shortBaseLen; i++ {
		short[i] = upper(base[i])
	}
	for i := 0; i < len(ext) && i < shortExtLen; i++ {
		short[shortBaseLen+i] = upper(ext[i])
	}

	return short
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// Name returns the human form of the short name: lower case, trailing spaces trimmed
// and the extension joined with a dot if there is one.
// Bytes above 0x7F are decoded from code page 437, the OEM code page FAT uses by default.
func (s ShortName) Name() string {
	// 0x05 stands in for a leading 0xE5, which would mark the entry as deleted.
	if s[0] == 0x05 {
		s[0] = 0xE5
	}

	base := strings.TrimRight(decodeOEM(s[:shortBaseLen]), " ")
	ext := strings.TrimRight(decodeOEM(s[shortBaseLen:]), " ")

	if ext == "" {
		return strings.ToLower(base)
	}
	return strings.ToLower(base) + "." + strings.ToLower(ext)
}

func (s ShortName) String() string {
	return string(s[:])
}

func decodeOEM(b []byte) string {
	for _, c := range b {
		if c >= 0x80 {
			decoded, err := charmap.CodePage437.NewDecoder().Bytes(b)
			if err != nil {
				return string(b)
			}
			return string(decoded)
		}
	}
	return string(b)
}
