// Package models provides API model types for the device-discovery
// surface: sysfs device snapshots, enumeration queries, and the uevent
// feed exposed over SSE.
package models

// DeviceInfo is the wire representation of a device.Device snapshot:
// the well-known properties plus the full property map for callers that
// need something the well-known fields don't surface.
type DeviceInfo struct {
	Syspath    string            `json:"syspath" example:"/sys/devices/virtual/net/eth0" doc:"Canonical sysfs path"`
	Devpath    string            `json:"devpath" example:"/devices/virtual/net/eth0" doc:"Devpath relative to the sysfs mount"`
	Subsystem  string            `json:"subsystem" example:"net" doc:"Subsystem name"`
	Sysname    string            `json:"sysname" example:"eth0" doc:"Kernel object name"`
	Devnode    string            `json:"devnode,omitempty" example:"/dev/sda" doc:"Device node path, if any"`
	Driver     string            `json:"driver,omitempty" example:"e1000e" doc:"Bound kernel driver, if any"`
	Properties map[string]string `json:"properties" doc:"Full property set, including derived ID_INPUT*/ID_PATH values"`
}

// DeviceData contains an enumeration result.
type DeviceData struct {
	Devices []DeviceInfo `json:"devices" doc:"Devices matching the enumeration filters"`
	Count   int          `json:"count" example:"12" doc:"Number of devices found"`
}

// DeviceResponse is the HTTP response wrapper for DeviceData.
type DeviceResponse struct {
	Body DeviceData
}

// DeviceDetailResponse is the HTTP response wrapper for a single device.
type DeviceDetailResponse struct {
	Body DeviceInfo
}

// EnumerateQuery binds the query-string filters accepted by the
// enumeration endpoint to AddMatch*/AddNomatch* calls on an Enumerator.
type EnumerateQuery struct {
	Subsystem       string `query:"subsystem" example:"input*" doc:"Glob filter on SUBSYSTEM (match)"`
	NotSubsystem    string `query:"not_subsystem" example:"tty" doc:"Glob filter on SUBSYSTEM (no-match)"`
	Sysname         string `query:"sysname" example:"event*" doc:"Glob filter on SYSNAME (match)"`
	PropertyKey     string `query:"property_key" example:"ID_INPUT_MOUSE" doc:"Property key to filter on"`
	PropertyPattern string `query:"property_pattern" example:"1" doc:"Glob filter applied to PropertyKey's value"`
}
