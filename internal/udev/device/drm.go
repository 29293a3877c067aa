package device

import "github.com/smazurov/udevzero/internal/udev/prop"

// deriveDRMProperties sets ID_PATH for DRM devices by walking up to the
// nearest PCI ancestor, matching the "pci-<sysname>" convention real udev
// rules derive for DRM card/connector nodes.
func deriveDRMProperties(d *Device) {
	if d.Subsystem() != "drm" {
		return
	}
	pci, err := d.ParentWithSubsystemDevtype("pci", "")
	if err != nil || pci == nil {
		return
	}
	d.props.Insert("ID_PATH", "pci-"+pci.Sysname(), prop.AppendIfAbsent)
}
