package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/monitor"
	"github.com/spf13/cobra"
)

// CreateMonitorCmd creates the monitor subcommand, a CLI equivalent of
// "udevadm monitor" printing uevents as they arrive until interrupted.
func CreateMonitorCmd() *cobra.Command {
	var dropboxDir string
	var useUdevGroup bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream uevents to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := udev.New()
			defer root.Unref()
			factory := device.NewFactory(root)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan *monitor.Event, 16)

			if dropboxDir != "" {
				mon, err := monitor.NewDropboxMonitor(factory, dropboxDir, nil)
				if err != nil {
					return fmt.Errorf("monitor: %w", err)
				}
				defer mon.Close()
				go func() {
					_ = mon.Run(ctx, events)
					close(events)
				}()
			} else {
				group := monitor.GroupKernel
				if useUdevGroup {
					group = monitor.GroupUdev
				}
				mon, err := monitor.NewNetlinkMonitor(factory)
				if err != nil {
					return fmt.Errorf("monitor: %w", err)
				}
				defer mon.Close()
				if err := mon.EnableReceiving(group); err != nil {
					return fmt.Errorf("monitor: %w", err)
				}
				go func() {
					_ = mon.Run(ctx, events)
					close(events)
				}()
			}

			for ev := range events {
				fmt.Printf("%-8s %-12s %s\n", ev.Device.Action(), ev.Device.Subsystem(), ev.Device.Syspath())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dropboxDir, "dropbox", "", "watch this directory instead of binding a netlink socket")
	cmd.Flags().BoolVar(&useUdevGroup, "udev-group", false, "bind the udev multicast group instead of the kernel group")

	return cmd
}
