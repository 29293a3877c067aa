package cmd

import (
	"context"
	"fmt"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/enumerate"
	"github.com/smazurov/udevzero/internal/udev/prop"
	"github.com/spf13/cobra"
)

// CreateEnumerateCmd creates the enumerate subcommand, a CLI equivalent of
// "udevadm info -e" scoped to this reimplementation's filter set.
func CreateEnumerateCmd() *cobra.Command {
	var subsystem, notSubsystem, sysname, propertyKey, propertyPattern string
	var showProperties bool

	cmd := &cobra.Command{
		Use:   "enumerate",
		Short: "List devices under /sys/dev/{char,block}",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := udev.New()
			defer root.Unref()
			factory := device.NewFactory(root)

			e := enumerate.New(factory)
			if subsystem != "" {
				e.AddMatchSubsystem(subsystem)
			}
			if notSubsystem != "" {
				e.AddNomatchSubsystem(notSubsystem)
			}
			if sysname != "" {
				e.AddMatchSysname(sysname)
			}
			if propertyKey != "" {
				e.AddMatchProperty(propertyKey, propertyPattern)
			}

			found, err := e.Scan(context.Background())
			if err != nil {
				return fmt.Errorf("enumerate: %w", err)
			}

			for _, d := range found {
				fmt.Printf("%s\n", d.Syspath())
				if !showProperties {
					continue
				}
				for e := d.Properties().Head(); e != nil; e = prop.Next(e) {
					fmt.Printf("  %s=%s\n", e.Name, e.Value)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subsystem, "subsystem-match", "", "only devices whose subsystem matches this glob")
	cmd.Flags().StringVar(&notSubsystem, "subsystem-nomatch", "", "exclude devices whose subsystem matches this glob")
	cmd.Flags().StringVar(&sysname, "sysname-match", "", "only devices whose sysname matches this glob")
	cmd.Flags().StringVar(&propertyKey, "property-match", "", "property key to filter on")
	cmd.Flags().StringVar(&propertyPattern, "property-value", "*", "glob pattern the property value must match")
	cmd.Flags().BoolVarP(&showProperties, "properties", "p", false, "print every property for each matched device")

	return cmd
}
