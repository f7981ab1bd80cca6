package main

import (
	"fmt"
	"io"

	"github.com/aligator/tinyfat"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// VolumeInfo is the geometry of a mounted volume as printed by info.
type VolumeInfo struct {
	Label             string  `yaml:"label"`
	Image             string  `yaml:"image"`
	PartitionStart    uint32  `yaml:"partitionStart"`
	SectorSize        uint16  `yaml:"sectorSize"`
	SectorsPerCluster uint8   `yaml:"sectorsPerCluster"`
	ClusterSize       uint32  `yaml:"clusterSize"`
	TotalSectors      uint32  `yaml:"totalSectors"`
	Clusters          uint32  `yaml:"clusters"`
	FreeClusters      *uint32 `yaml:"freeClusters,omitempty"`
	NextFreeCluster   *uint32 `yaml:"nextFreeCluster,omitempty"`
}

// unknownHint is the FSInfo value for "not known".
const unknownHint = 0xFFFFFFFF

func hint(value uint32) *uint32 {
	if value == unknownHint {
		return nil
	}
	return &value
}

func newVolumeInfo(v *tinyfat.Volume, image string) VolumeInfo {
	return VolumeInfo{
		Label:             string(v.Label()),
		Image:             image,
		PartitionStart:    v.PartitionStart(),
		SectorSize:        v.SectorSize(),
		SectorsPerCluster: v.SectorsPerCluster(),
		ClusterSize:       v.ClusterSize(),
		TotalSectors:      v.TotalSectors(),
		Clusters:          v.ClusterCount(),
		FreeClusters:      hint(v.FreeClusters()),
		NextFreeCluster:   hint(v.NextFreeCluster()),
	}
}

func infoCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the geometry of the mounted volumes",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "yaml":
				return nil
			default:
				return fmt.Errorf("unsupported --format %q (supported: text, yaml)", format)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mount(); err != nil {
				return err
			}
			defer a.close()

			var infos []VolumeInfo
			for _, v := range a.registry.Volumes() {
				infos = append(infos, newVolumeInfo(v, a.config.Images[v.Device()].Path))
			}

			return writeInfo(cmd.OutOrStdout(), infos, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format, text or yaml")

	return cmd
}

func writeInfo(out io.Writer, infos []VolumeInfo, format string) error {
	if format == "yaml" {
		b, err := yaml.Marshal(infos)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = out.Write(b)
		return err
	}

	for _, info := range infos {
		fmt.Fprintf(out, "%s: %s\n", info.Label, info.Image)
		fmt.Fprintf(out, "  partition start:     %d\n", info.PartitionStart)
		fmt.Fprintf(out, "  sector size:         %d\n", info.SectorSize)
		fmt.Fprintf(out, "  sectors per cluster: %d\n", info.SectorsPerCluster)
		fmt.Fprintf(out, "  cluster size:        %d\n", info.ClusterSize)
		fmt.Fprintf(out, "  total sectors:       %d\n", info.TotalSectors)
		fmt.Fprintf(out, "  clusters:            %d\n", info.Clusters)
		if info.FreeClusters != nil {
			fmt.Fprintf(out, "  free clusters:       %d\n", *info.FreeClusters)
		}
		if info.NextFreeCluster != nil {
			fmt.Fprintf(out, "  next free cluster:   %d\n", *info.NextFreeCluster)
		}
	}
	return nil
}
