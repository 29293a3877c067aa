package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/smazurov/udevzero/internal/udev/prop"
)

// SysattrValue reads a sysfs attribute, caching the (trimmed) result.
// Symlinks are rejected: only regular files under the device's syspath are
// readable as attributes. Reads are capped at maxSysattrSize bytes and any
// trailing newlines are stripped, matching the kernel's one-value-per-line
// sysfs convention.
func (d *Device) SysattrValue(name string) (string, error) {
	if d == nil {
		return "", fmt.Errorf("device: SysattrValue on nil device")
	}
	if d.sysattr != nil {
		if e := d.sysattr.Lookup(name); e != nil {
			return e.Value, nil
		}
	}

	path := filepath.Join(d.Syspath(), name)
	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("device: sysattr %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("device: sysattr %s: not a regular file", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("device: sysattr %s: %w", name, err)
	}
	defer f.Close()

	buf := make([]byte, maxSysattrSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("device: sysattr %s: %w", name, err)
	}

	value := strings.TrimRight(string(buf[:n]), "\n")

	if d.sysattr == nil {
		d.sysattr = prop.NewTable()
	}
	d.sysattr.Insert(name, value, prop.Upsert)

	return value, nil
}

// SetSysattrValue writes a sysfs attribute and updates the cache on
// success. As with reads, the target must be an existing regular file;
// this package never creates sysfs nodes.
func (d *Device) SetSysattrValue(name, value string) error {
	if d == nil {
		return fmt.Errorf("device: SetSysattrValue on nil device")
	}

	path := filepath.Join(d.Syspath(), name)
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("device: sysattr %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("device: sysattr %s: not a regular file", name)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("device: sysattr %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.WriteString(value); err != nil {
		return fmt.Errorf("device: sysattr %s: %w", name, err)
	}

	if d.sysattr == nil {
		d.sysattr = prop.NewTable()
	}
	d.sysattr.Insert(name, value, prop.Upsert)

	return nil
}
