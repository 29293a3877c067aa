// Package monitoring wires the udev monitor transports into the event bus
// so HTTP/SSE consumers see hotplug activity without depending on the
// udev package directly.
package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/udevzero/internal/api/models"
	"github.com/smazurov/udevzero/internal/events"
	"github.com/smazurov/udevzero/internal/metrics"
	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/monitor"
	"github.com/smazurov/udevzero/internal/udev/prop"
)

const (
	transportLabelNetlink = "netlink"
	transportLabelDropbox = "dropbox"
)

// Transport selects which uevent source UdevMonitor uses.
type Transport int

const (
	// TransportNetlink binds a NETLINK_KOBJECT_UEVENT socket. Requires
	// the process to have netlink multicast access (typically root, or
	// CAP_NET_ADMIN, outside a restrictive container).
	TransportNetlink Transport = iota
	// TransportDropbox watches a directory for drop-box event files,
	// for environments where netlink multicast isn't reachable.
	TransportDropbox
)

// UdevMonitor runs a single uevent transport and republishes every
// delivered device as a DeviceDiscoveryEvent on the bus.
type UdevMonitor struct {
	transport Transport
	dropboxDir string
	group      uint32

	root    *udev.Root
	factory *device.Factory
	bus     *events.Bus
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a UdevMonitor.
type Option func(*UdevMonitor)

// WithDropbox selects the drop-box transport, watching dir.
func WithDropbox(dir string) Option {
	return func(m *UdevMonitor) {
		m.transport = TransportDropbox
		m.dropboxDir = dir
	}
}

// WithNetlinkGroup selects the netlink transport bound to group
// (monitor.GroupKernel or monitor.GroupUdev).
func WithNetlinkGroup(group uint32) Option {
	return func(m *UdevMonitor) {
		m.transport = TransportNetlink
		m.group = group
	}
}

// NewUdevMonitor constructs a monitor publishing onto bus. Defaults to the
// netlink transport bound to the kernel group.
func NewUdevMonitor(bus *events.Bus, logger *slog.Logger, opts ...Option) *UdevMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	root := udev.New()
	m := &UdevMonitor{
		transport: TransportNetlink,
		group:     monitor.GroupKernel,
		root:      root,
		factory:   device.NewFactory(root),
		bus:       bus,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens the selected transport and begins republishing events until
// Stop is called.
func (m *UdevMonitor) Start() error {
	switch m.transport {
	case TransportDropbox:
		return m.startDropbox()
	default:
		return m.startNetlink()
	}
}

func (m *UdevMonitor) startNetlink() error {
	mon, err := monitor.NewNetlinkMonitor(m.factory)
	if err != nil {
		return err
	}
	if err := mon.EnableReceiving(m.group); err != nil {
		mon.Close()
		return err
	}
	evCh := make(chan *monitor.Event, 16)
	go func() {
		if err := mon.Run(m.ctx, evCh); err != nil && m.ctx.Err() == nil {
			metrics.MonitorErrors.WithLabelValues(transportLabelNetlink).Inc()
			m.logger.Warn("netlink monitor stopped", "error", err)
		}
	}()
	go m.relay(evCh, transportLabelNetlink)
	go func() {
		<-m.ctx.Done()
		mon.Close()
	}()
	m.logger.Info("udev monitor started", "transport", "netlink", "group", m.group)
	return nil
}

func (m *UdevMonitor) startDropbox() error {
	mon, err := monitor.NewDropboxMonitor(m.factory, m.dropboxDir, m.logger)
	if err != nil {
		return err
	}
	evCh := make(chan *monitor.Event, 16)
	go func() {
		if err := mon.Run(m.ctx, evCh); err != nil && m.ctx.Err() == nil {
			metrics.MonitorErrors.WithLabelValues(transportLabelDropbox).Inc()
			m.logger.Warn("dropbox monitor stopped", "error", err)
		}
	}()
	go m.relay(evCh, transportLabelDropbox)
	go func() {
		<-m.ctx.Done()
		mon.Close()
	}()
	m.logger.Info("udev monitor started", "transport", "dropbox", "dir", m.dropboxDir)
	return nil
}

// Stop signals the running transport to shut down.
func (m *UdevMonitor) Stop() {
	m.cancel()
}

func (m *UdevMonitor) relay(ch <-chan *monitor.Event, transportLabel string) {
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			dev := toDiscoveryEvent(ev)
			metrics.EventsReceived.WithLabelValues(dev.Action, transportLabel).Inc()
			m.bus.Publish(dev)
		}
	}
}

func toDiscoveryEvent(ev *monitor.Event) events.DeviceDiscoveryEvent {
	d := ev.Device
	props := make(map[string]string)
	for e := d.Properties().Head(); e != nil; e = prop.Next(e) {
		props[e.Name] = e.Value
	}

	return events.DeviceDiscoveryEvent{
		DeviceInfo: models.DeviceInfo{
			Syspath:   d.Syspath(),
			Devpath:   d.Devpath(),
			Subsystem: d.Subsystem(),
			Sysname:   d.Sysname(),
			Devnode:   d.Devnode(),
			Driver:    d.Get("DRIVER"),
			Properties: props,
		},
		Action:    d.Action(),
		Seqnum:    ev.Seqnum,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
