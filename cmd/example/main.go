package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aligator/tinyfat"
	"github.com/aligator/tinyfat/device"
	"github.com/spf13/afero"
)

// main is just a example main to play with tinyfat.
// Run 'go generate' first to get testdata/sample.img.
func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) <= 0 {
		fmt.Println("Please provide a filename.")
		os.Exit(1)
	}

	images := device.New()
	defer images.Close()

	if err := images.OpenImage(afero.NewOsFs(), 0, argsWithoutProg[0]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	registry := tinyfat.NewRegistry(images)
	if err := registry.Mount(0, 'A'); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fat, err := registry.Fs('A')
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	v, _ := registry.Volume('A')
	fmt.Printf("Mounted volume %c with %v clusters of %v bytes\n\n", v.Label(), v.ClusterCount(), v.ClusterSize())

	afero.Walk(fat, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.ModTime())
		return nil
	})

	file, err := fat.Open("readme.md")
	if err != nil {
		fmt.Println("could not open the root file", err)
		os.Exit(1)
	}

	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		fmt.Println("could not stat the file", err)
		os.Exit(1)
	}
	buffer := make([]byte, stat.Size())
	n, err := io.ReadFull(file, buffer)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println(stat.Size(), n)
	fmt.Println("\n\nContent of " + stat.Name() + ":\n\n" + string(buffer))

	buffer = make([]byte, 24)
	offset, err := file.Seek(9, io.SeekStart)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}
	fmt.Println(offset, err)

	n, err = file.Read(buffer)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println("\n\nContent of " + stat.Name() + " using an offset and small buffer:\n\n" + string(buffer[:n]))

	// The same file through the Registry path syntax.
	item, err := registry.Open("A:/docs/notes.txt")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	notes, err := io.ReadAll(&item)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Print("\n\n" + string(notes))
}
