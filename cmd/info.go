package cmd

import (
	"fmt"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/prop"
	"github.com/spf13/cobra"
)

// CreateInfoCmd creates the info subcommand, a CLI equivalent of
// "udevadm info --path" printing one device's snapshot and parent chain.
func CreateInfoCmd() *cobra.Command {
	var syspath string
	var walkParents bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print a device snapshot built from a sysfs path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if syspath == "" {
				return fmt.Errorf("info: --path is required")
			}

			root := udev.New()
			defer root.Unref()
			factory := device.NewFactory(root)

			d, err := factory.FromSyspath(syspath)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}

			for d != nil {
				fmt.Printf("P: %s\n", d.Syspath())
				fmt.Printf("E: SUBSYSTEM=%s\n", d.Subsystem())
				for e := d.Properties().Head(); e != nil; e = prop.Next(e) {
					fmt.Printf("E: %s=%s\n", e.Name, e.Value)
				}
				fmt.Println()

				if !walkParents {
					return nil
				}
				next, parentErr := d.Parent()
				if parentErr != nil {
					return nil
				}
				d = next
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&syspath, "path", "", "sysfs path to build a device from")
	cmd.Flags().BoolVar(&walkParents, "walk-parents", false, "also print every ancestor device")

	return cmd
}
