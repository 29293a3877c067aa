package monitoring

import (
	"testing"

	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/monitor"
)

func TestToDiscoveryEvent(t *testing.T) {
	factory := device.NewFactory(udev.New())
	d, err := factory.FromUevent([]byte(
		"ACTION=add\x00DEVPATH=/devices/virtual/net/eth9\x00SUBSYSTEM=net\x00SEQNUM=5\x00DEVNAME=eth9\x00",
	))
	if err != nil {
		t.Fatalf("FromUevent: %v", err)
	}

	ev := toDiscoveryEvent(&monitor.Event{Device: d, Seqnum: "5"})

	if ev.Action != "add" {
		t.Errorf("Action = %s, want add", ev.Action)
	}
	if ev.Subsystem != "net" {
		t.Errorf("Subsystem = %s, want net", ev.Subsystem)
	}
	if ev.Devnode != "/dev/eth9" {
		t.Errorf("Devnode = %s, want /dev/eth9", ev.Devnode)
	}
	if ev.Properties["SEQNUM"] != "5" {
		t.Errorf("Properties[SEQNUM] = %s, want 5", ev.Properties["SEQNUM"])
	}
}
