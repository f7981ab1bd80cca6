package main

import (
	"fmt"
	"io"

	"github.com/aligator/tinyfat"
	"github.com/spf13/cobra"
)

func lsCmd(a *app) *cobra.Command {
	var (
		all  bool
		long bool
	)

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a directory",
		Long: `List the entries of a directory, "/" of the first image by default.
Paths are absolute and may select an image by its label: "B:/docs".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 0 {
				path = args[0]
			}

			if err := a.mount(); err != nil {
				return err
			}
			defer a.close()

			item, err := a.registry.Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if !item.IsDir() {
				printEntry(out, item, long)
				return nil
			}

			for {
				entry, err := item.ReadEntry()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if !all && !visible(entry) {
					continue
				}
				printEntry(out, entry, long)
			}
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden and system entries, the volume label and the . and .. links")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show attributes, size and modification time")

	return cmd
}

func visible(entry tinyfat.Item) bool {
	if entry.Attr&(tinyfat.AttrHidden|tinyfat.AttrSystem|tinyfat.AttrVolumeID) != 0 {
		return false
	}
	name := entry.Name()
	return name != "." && name != ".."
}

func printEntry(out io.Writer, entry tinyfat.Item, long bool) {
	name := entry.Name()
	if entry.IsDir() {
		name += "/"
	}

	if !long {
		fmt.Fprintln(out, name)
		return
	}

	modified := "-"
	if !entry.Modified.IsZero() {
		modified = entry.Modified.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(out, "%s %10d %16s %s\n", entry.Attr, entry.Size, modified, name)
}
