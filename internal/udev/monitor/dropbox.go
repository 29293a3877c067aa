package monitor

import (
	"context"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/smazurov/udevzero/internal/udev/device"
)

// DropboxMonitor watches a directory for uevent files dropped by a
// privileged helper that has access to the real netlink socket (or, in
// tests, by anything that can write a file) when netlink multicast isn't
// reachable from this process's namespace. Each file is consumed and
// removed as soon as it's parsed, following the same at-most-once delivery
// contract as the netlink transport.
type DropboxMonitor struct {
	dir     string
	factory *device.Factory
	logger  *slog.Logger

	watcher *fsnotify.Watcher
}

// NewDropboxMonitor returns a monitor watching dir. Call Run to begin
// delivering events; Close stops watching and releases the inotify
// descriptor.
func NewDropboxMonitor(factory *device.Factory, dir string, logger *slog.Logger) (*DropboxMonitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DropboxMonitor{dir: dir, factory: factory, logger: logger, watcher: w}, nil
}

// Close stops the underlying fsnotify watch.
func (m *DropboxMonitor) Close() error {
	return m.watcher.Close()
}

// Run delivers one Event per file created in the drop-box directory until
// ctx is cancelled, when it returns ctx.Err(), or until Close closes the
// fsnotify event channel, when it returns nil.
func (m *DropboxMonitor) Run(ctx context.Context, out chan<- *Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			m.deliver(ctx, ev.Name, out)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("dropbox watch error", "error", err, "dir", m.dir)
		}
	}
}

func (m *DropboxMonitor) deliver(ctx context.Context, path string, out chan<- *Event) {
	dev, err := m.factory.FromDropboxFile(path)
	if err != nil {
		m.logger.Warn("dropbox: discarding malformed event file", "path", path, "error", err)
		os.Remove(path)
		return
	}
	os.Remove(path)

	select {
	case out <- &Event{Device: dev, Seqnum: dev.Get("SEQNUM")}:
	case <-ctx.Done():
	}
}
