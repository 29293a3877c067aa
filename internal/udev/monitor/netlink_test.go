package monitor

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
)

func TestNewNetlinkMonitorOpensAndCloses(t *testing.T) {
	factory := device.NewFactory(udev.New())

	mon, err := NewNetlinkMonitor(factory)
	if err != nil {
		t.Skipf("netlink socket unavailable in this environment: %v", err)
	}
	if err := mon.EnableReceiving(GroupKernel); err != nil {
		t.Fatalf("EnableReceiving: %v", err)
	}
	if err := mon.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestIsSpoofedRejectsNoGroupAndSpoofedKernelPid(t *testing.T) {
	cases := []struct {
		name string
		nl   unix.SockaddrNetlink
		want bool
	}{
		{"no group", unix.SockaddrNetlink{Groups: 0, Pid: 0}, true},
		{"kernel group, kernel pid", unix.SockaddrNetlink{Groups: GroupKernel, Pid: 0}, false},
		{"kernel group, spoofed pid", unix.SockaddrNetlink{Groups: GroupKernel, Pid: 1234}, true},
		{"udev group, nonzero pid", unix.SockaddrNetlink{Groups: GroupUdev, Pid: 1234}, false},
	}
	for _, tc := range cases {
		nl := tc.nl
		if got := isSpoofed(&nl); got != tc.want {
			t.Errorf("%s: isSpoofed() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMulticastGroupConstants(t *testing.T) {
	if GroupKernel != 0x1 {
		t.Errorf("GroupKernel = %#x, want 0x1", GroupKernel)
	}
	if GroupUdev != 0x4 {
		t.Errorf("GroupUdev = %#x, want 0x4", GroupUdev)
	}
}
