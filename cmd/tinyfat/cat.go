package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func catCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Print the content of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if err := a.mount(); err != nil {
				return err
			}
			defer a.close()

			item, err := a.registry.Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if item.IsDir() {
				return fmt.Errorf("%s: is a directory", path)
			}

			if _, err := io.Copy(cmd.OutOrStdout(), &item); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		},
	}
}
