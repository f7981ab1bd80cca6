package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aligator/tinyfat/internal/fatimage"
)

// main for writing the sample image used by cmd/example. Can be executed using 'go generate' from the project root.
func main() {
	dest := filepath.Join("testdata", "sample.img")

	img := fatimage.New(fatimage.Options{
		SectorsPerCluster: 2,
		VolumeLabel:       "SAMPLE",
	})
	root := img.Root()
	root.File("README.MD", []byte(readme))

	docs := root.Dir("DOCS")
	docs.File("NOTES.TXT", []byte("Read-only FAT32 for small devices.\n"))
	logs := docs.Dir("LOGS")
	for i := 0; i < 3; i++ {
		logs.File(fmt.Sprintf("DAY%d.LOG", i), []byte(strings.Repeat(fmt.Sprintf("entry of day %d\n", i), 40*(i+1))))
	}

	raw, _ := img.Build()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(dest, raw, 0644); err != nil {
		panic(err)
	}
}

const readme = `# tinyfat sample

This image was written by cmd/generate.
It holds a README, a docs directory and some log files spanning more than one cluster.
`
