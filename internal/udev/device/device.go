// Package device implements the device snapshot, its five-way factory, and
// the parent-chain walk described by the property-derivation subsystem:
// a sysfs directory (or a kernel uevent datagram, or a drop-box file) goes
// in, an immutable-after-construction set of properties comes out.
package device

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/prop"
)

// sysMountPoint is a var, not a const, so tests can point the factory at a
// fabricated sysfs tree under a temp directory.
var sysMountPoint = "/sys"

const maxSysattrSize = 4096

// Device is an immutable-after-construction snapshot of one kernel device
// object: its properties, a lazily populated sysattr cache, and at most one
// memoized parent.
type Device struct {
	root    *udev.Root
	factory *Factory
	props   *prop.Table
	sysattr *prop.Table

	parent      *Device
	parentTried bool

	refs atomic.Int32
}

// Factory constructs devices against a single Root, so that derived
// operations (parent-chain walking, DRM/evdev derivation) can recurse
// through the same construction paths.
type Factory struct {
	root *udev.Root
}

// NewFactory returns a Factory bound to root. Every Device it constructs
// reports root from Root().
func NewFactory(root *udev.Root) *Factory {
	return &Factory{root: root}
}

func newDevice(f *Factory) *Device {
	d := &Device{
		factory: f,
		root:    f.root,
		props:   prop.NewTable(),
	}
	d.refs.Store(1)
	return d
}

// Root returns the Root this device was constructed against.
func (d *Device) Root() *udev.Root {
	if d == nil {
		return nil
	}
	return d.root
}

// Ref increments the device's reference count.
func (d *Device) Ref() *Device {
	if d == nil {
		return nil
	}
	d.refs.Add(1)
	return d
}

// Unref decrements the reference count and, on reaching zero, recursively
// unrefs the memoized parent. Returns whether this call brought the count
// to zero.
func (d *Device) Unref() bool {
	if d == nil {
		return false
	}
	if d.refs.Add(-1) != 0 {
		return false
	}
	if d.parent != nil {
		d.parent.Unref()
	}
	return true
}

// Get returns the value of a property, or "" when absent. A nil device is
// a safe no-op.
func (d *Device) Get(name string) string {
	if d == nil {
		return ""
	}
	return d.props.Value(name)
}

// Properties returns the device's property table for iteration (the List
// entry ABI surface: Head/Next/Name/Value).
func (d *Device) Properties() *prop.Table {
	if d == nil {
		return nil
	}
	return d.props
}

// Syspath, Devpath, Subsystem, Sysname, Devnode are convenience accessors
// over the well-known property keys.
func (d *Device) Syspath() string   { return d.Get("SYSPATH") }
func (d *Device) Devpath() string   { return d.Get("DEVPATH") }
func (d *Device) Subsystem() string { return d.Get("SUBSYSTEM") }
func (d *Device) Sysname() string   { return d.Get("SYSNAME") }
func (d *Device) Devnode() string   { return d.Get("DEVNAME") }
func (d *Device) Action() string    { return d.Get("ACTION") }

// IsInitialized always reports true. The original library tracks a
// db-written flag this reimplementation doesn't maintain; per the
// documented deviation, every constructed device is considered
// initialized.
func (d *Device) IsInitialized() bool { return true }

// FromSyspath builds a device from a sysfs directory. The subsystem
// symlink must exist; the uevent file, if present, seeds and overrides
// properties derived from the path itself.
func (f *Factory) FromSyspath(syspath string) (*Device, error) {
	subsystem, err := readLinkBasename(filepath.Join(syspath, "subsystem"))
	if err != nil {
		return nil, fmt.Errorf("device: %s has no subsystem link: %w", syspath, err)
	}

	canonical, err := filepath.EvalSymlinks(syspath)
	if err != nil {
		return nil, fmt.Errorf("device: cannot canonicalize %s: %w", syspath, err)
	}
	if !strings.HasPrefix(canonical, sysMountPoint+"/") && canonical != sysMountPoint {
		return nil, fmt.Errorf("device: %s resolves outside %s", syspath, sysMountPoint)
	}

	d := newDevice(f)
	sysname := filepath.Base(canonical)

	d.props.Insert("SYSPATH", canonical, prop.AppendIfAbsent)
	d.props.Insert("DEVPATH", strings.TrimPrefix(canonical, sysMountPoint), prop.AppendIfAbsent)
	d.props.Insert("SUBSYSTEM", subsystem, prop.AppendIfAbsent)
	d.props.Insert("SYSNAME", sysname, prop.AppendIfAbsent)
	d.props.Insert("SYSNUM", trailingDigits(sysname), prop.AppendIfAbsent)

	if driver, err := readLinkBasename(filepath.Join(canonical, "driver")); err == nil {
		d.props.Insert("DRIVER", driver, prop.AppendIfAbsent)
	}

	if err := loadUeventFile(filepath.Join(canonical, "uevent"), d.props); err != nil {
		return nil, err
	}

	deriveEvdevProperties(d)
	deriveDRMProperties(d)

	return d, nil
}

// FromDevNum builds a device from a (kind, major, minor) triple. kind must
// be 'c' (char) or 'b' (block).
func (f *Factory) FromDevNum(kind byte, major, minor int) (*Device, error) {
	var root string
	switch kind {
	case 'c':
		root = "char"
	case 'b':
		root = "block"
	default:
		return nil, fmt.Errorf("device: unknown device kind %q", kind)
	}
	syspath := fmt.Sprintf("%s/dev/%s/%d:%d", sysMountPoint, root, major, minor)
	return f.FromSyspath(syspath)
}

// FromSubsystemSysname builds a device from (subsystem, sysname), trying
// the bus directory first and falling back to the class directory.
func (f *Factory) FromSubsystemSysname(subsystem, sysname string) (*Device, error) {
	candidates := []string{
		filepath.Join(sysMountPoint, "bus", subsystem, "devices", sysname),
		filepath.Join(sysMountPoint, "class", subsystem, sysname),
	}
	var lastErr error
	for _, c := range candidates {
		if _, err := os.Lstat(c); err != nil {
			lastErr = err
			continue
		}
		return f.FromSyspath(c)
	}
	return nil, fmt.Errorf("device: no device at subsystem=%s sysname=%s: %w", subsystem, sysname, lastErr)
}

// requiredUeventKeys are mandatory for the datagram and drop-box-file
// factories (spec.md §4.2, "From uevent datagram").
var requiredUeventKeys = []string{"DEVPATH", "SUBSYSTEM", "ACTION", "SEQNUM"}

// FromUevent builds a device from a raw kernel uevent datagram: a sequence
// of NUL-terminated KEY=VALUE records.
func (f *Factory) FromUevent(buf []byte) (*Device, error) {
	records := splitRecords(buf, 0)
	return f.fromRecords(records)
}

// FromDropboxFile builds a device from a drop-box text file: one
// newline-terminated KEY=VALUE record per line, same mandatory-keys rule
// as the datagram.
func (f *Factory) FromDropboxFile(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("device: reading drop-box file %s: %w", path, err)
	}
	records := splitRecords(data, '\n')
	return f.fromRecords(records)
}

func (f *Factory) fromRecords(records []string) (*Device, error) {
	var devpath string
	seen := make(map[string]bool, len(requiredUeventKeys))
	for _, rec := range records {
		k, v, ok := strings.Cut(rec, "=")
		if !ok {
			continue
		}
		seen[k] = true
		if k == "DEVPATH" {
			devpath = v
		}
	}

	for _, k := range requiredUeventKeys {
		if !seen[k] {
			return nil, fmt.Errorf("device: uevent missing required key %s", k)
		}
	}

	d := newDevice(f)
	syspath := sysMountPoint + devpath
	sysname := filepath.Base(devpath)

	d.props.Insert("SYSPATH", syspath, prop.Upsert)
	d.props.Insert("SYSNAME", sysname, prop.Upsert)
	d.props.Insert("SYSNUM", trailingDigits(sysname), prop.Upsert)

	// Records are inserted in their original wire order, not a map's
	// randomized iteration order, so Properties().Head()/Next() replays
	// the uevent's own ordering.
	for _, rec := range records {
		k, v, ok := strings.Cut(rec, "=")
		if !ok {
			continue
		}
		if k == "DEVNAME" {
			v = "/dev/" + v
		}
		d.props.Insert(k, v, prop.Upsert)
	}
	// DEVPATH itself must survive verbatim alongside the derived SYSPATH.
	d.props.Insert("DEVPATH", devpath, prop.Upsert)

	deriveEvdevProperties(d)
	deriveDRMProperties(d)

	return d, nil
}

// splitRecords splits buf on sep (0x00 for the wire datagram, '\n' for the
// drop-box file), dropping empty trailing records.
func splitRecords(buf []byte, sep byte) []string {
	parts := bytes.Split(buf, []byte{sep})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, string(p))
	}
	return out
}

// loadUeventFile reads a sysfs uevent text file into props, special-casing
// DEVNAME (prefixed with /dev/) and upserting every other key so uevent
// values take precedence over path-derived seeds.
func loadUeventFile(path string, props *prop.Table) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("device: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if k == "DEVNAME" {
			v = "/dev/" + v
		}
		props.Insert(k, v, prop.Upsert)
	}
	return scanner.Err()
}

// readLinkBasename resolves a symlink and returns the last path component
// of its target, matching the "subsystem"/"driver" sysfs convention.
func readLinkBasename(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	return filepath.Base(target), nil
}

// trailingDigits returns the longest trailing run of decimal digits in s,
// or "" when s has none. A purely numeric s returns s unchanged.
func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}
