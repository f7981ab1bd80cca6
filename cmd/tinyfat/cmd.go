package main

import (
	"fmt"

	"github.com/aligator/tinyfat"
	"github.com/aligator/tinyfat/device"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app holds everything the subcommands share.
type app struct {
	log    *logrus.Logger
	config Config

	images   *device.Images
	registry *tinyfat.Registry
}

func newCmd() *cobra.Command {
	var (
		a = &app{log: logrus.New()}

		flagConfig string
		flagImages []string
		flagNoMBR  bool
		flagDebug  bool
	)

	cmd := &cobra.Command{
		Use:          "tinyfat",
		Short:        "Read files from FAT32 disk images",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log.SetOutput(cmd.ErrOrStderr())

			if flagConfig != "" {
				config, err := readConfig(afero.NewOsFs(), flagConfig)
				if err != nil {
					return err
				}
				a.config = config
			}

			for _, value := range flagImages {
				img, err := parseImageFlag(value)
				if err != nil {
					return err
				}
				a.config.Images = append(a.config.Images, img)
			}
			a.config.NoMBR = a.config.NoMBR || flagNoMBR

			level := logrus.WarnLevel
			if a.config.LogLevel != "" {
				parsed, err := logrus.ParseLevel(a.config.LogLevel)
				if err != nil {
					return err
				}
				level = parsed
			}
			if flagDebug {
				level = logrus.DebugLevel
			}
			a.log.SetLevel(level)

			return nil
		},
	}

	cmd.AddCommand(lsCmd(a))
	cmd.AddCommand(catCmd(a))
	cmd.AddCommand(infoCmd(a))

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file listing the images to mount")
	cmd.PersistentFlags().StringArrayVar(&flagImages, "image", nil, "Image to mount, format is LABEL=PATH, e.g. A=disk.img. Can be provided multiple times.")
	cmd.PersistentFlags().BoolVar(&flagNoMBR, "no-mbr", false, "Images start with the FAT32 boot sector instead of a partition table")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	return cmd
}

// mount opens and mounts all configured images. Device ids are the image positions.
func (a *app) mount() error {
	if len(a.config.Images) == 0 {
		return fmt.Errorf("no images given, use --image or --config")
	}

	opts := []tinyfat.Option{tinyfat.WithLogger(a.log)}
	if a.config.Capacity > 0 {
		opts = append(opts, tinyfat.WithCapacity(a.config.Capacity))
	}
	if a.config.NoMBR {
		opts = append(opts, tinyfat.WithoutPartitionTable())
	}

	a.images = device.New()
	a.registry = tinyfat.NewRegistry(a.images, opts...)

	for dev, img := range a.config.Images {
		log := a.log.WithFields(logrus.Fields{"label": img.Label, "path": img.Path})

		if err := a.images.OpenPath(dev, img.Path); err != nil {
			a.close()
			return err
		}
		if err := a.registry.Mount(dev, img.Label[0]); err != nil {
			a.close()
			return fmt.Errorf("mount %s: %w", img.Path, err)
		}
		log.Debug("image mounted")
	}
	return nil
}

func (a *app) close() {
	if a.images == nil {
		return
	}
	if err := a.images.Close(); err != nil {
		a.log.WithError(err).Warn("could not close images")
	}
}
