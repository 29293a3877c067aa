// Package monitor implements the two uevent transports: a netlink socket
// bound to NETLINK_KOBJECT_UEVENT, and a drop-box directory watched with
// fsnotify for systems where netlink multicast isn't available to the
// calling process (containers, restricted namespaces).
//
// Both transports feed device.Device snapshots, built through the same
// device.Factory used for enumeration, onto a single Event channel.
package monitor

import "github.com/smazurov/udevzero/internal/udev/device"

// Event is one uevent delivered by either transport.
type Event struct {
	Device *device.Device
	Seqnum string
}

// Multicast group bitmasks for NETLINK_KOBJECT_UEVENT, matching the
// kernel's lib/kobject_uevent.c group assignment.
const (
	GroupKernel uint32 = 0x1 // raw kernel events, pre-udev-rules
	GroupUdev   uint32 = 0x4 // events re-broadcast by udev after rule processing
)
