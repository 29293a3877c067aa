package device

import "path/filepath"

// Parent returns the device's parent, walking up the sysfs tree and
// memoizing the result (including a negative result) on first call.
//
// The walk starts at SYSPATH and repeatedly trims the trailing path
// component, attempting to construct a device from the shortened path
// until one succeeds or the path shrinks to the sysfs mount point itself.
func (d *Device) Parent() (*Device, error) {
	if d == nil {
		return nil, nil
	}
	if d.parentTried {
		return d.parent, nil
	}
	d.parentTried = true

	path := d.Syspath()
	for {
		trimmed := filepath.Dir(path)
		if trimmed == path || trimmed == sysMountPoint || trimmed == "/" {
			return nil, nil
		}
		path = trimmed

		p, err := d.factory.FromSyspath(path)
		if err == nil {
			d.parent = p
			return p, nil
		}
	}
}

// ParentWithSubsystemDevtype walks the parent chain looking for the first
// ancestor whose SUBSYSTEM matches subsystem and, when devtype is
// non-empty, whose DEVTYPE also matches.
func (d *Device) ParentWithSubsystemDevtype(subsystem, devtype string) (*Device, error) {
	if d == nil {
		return nil, nil
	}
	cur := d
	for {
		p, err := cur.Parent()
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, nil
		}
		if p.Subsystem() == subsystem && (devtype == "" || p.Get("DEVTYPE") == devtype) {
			return p, nil
		}
		cur = p
	}
}
