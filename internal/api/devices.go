package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/udevzero/internal/api/models"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/enumerate"
	"github.com/smazurov/udevzero/internal/udev/prop"
)

// DeviceSyspathInput identifies a single device by its sysfs path.
type DeviceSyspathInput struct {
	Syspath string `query:"syspath" required:"true" example:"/sys/class/input/event0" doc:"Sysfs path of the device"`
}

// EnumerateInput binds the enumeration endpoint's query-string filters.
type EnumerateInput struct {
	models.EnumerateQuery
}

func toDeviceInfo(d *device.Device) models.DeviceInfo {
	props := make(map[string]string)
	for e := d.Properties().Head(); e != nil; e = prop.Next(e) {
		props[e.Name] = e.Value
	}
	return models.DeviceInfo{
		Syspath:    d.Syspath(),
		Devpath:    d.Devpath(),
		Subsystem:  d.Subsystem(),
		Sysname:    d.Sysname(),
		Devnode:    d.Devnode(),
		Driver:     d.Get("DRIVER"),
		Properties: props,
	}
}

// registerDeviceRoutes registers enumeration and single-device lookup
// endpoints against the shared device factory.
func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List devices",
		Description: "Enumerate devices under /sys/dev/{char,block}, optionally filtered by subsystem, sysname, or property",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *EnumerateInput) (*models.DeviceResponse, error) {
		e := enumerate.New(s.factory)
		if input.Subsystem != "" {
			e.AddMatchSubsystem(input.Subsystem)
		}
		if input.NotSubsystem != "" {
			e.AddNomatchSubsystem(input.NotSubsystem)
		}
		if input.Sysname != "" {
			e.AddMatchSysname(input.Sysname)
		}
		if input.PropertyKey != "" {
			e.AddMatchProperty(input.PropertyKey, input.PropertyPattern)
		}

		found, err := e.Scan(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("enumeration failed", err)
		}

		out := make([]models.DeviceInfo, len(found))
		for i, d := range found {
			out[i] = toDeviceInfo(d)
		}

		return &models.DeviceResponse{Body: models.DeviceData{Devices: out, Count: len(out)}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/info",
		Summary:     "Device detail",
		Description: "Build a single device snapshot from its sysfs path",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *DeviceSyspathInput) (*models.DeviceDetailResponse, error) {
		d, err := s.factory.FromSyspath(input.Syspath)
		if err != nil {
			return nil, huma.Error404NotFound("device not found", err)
		}
		return &models.DeviceDetailResponse{Body: toDeviceInfo(d)}, nil
	})
}
