package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/udevzero/internal/api/models"
	"github.com/smazurov/udevzero/internal/events"
	"github.com/smazurov/udevzero/internal/logging"
	"github.com/smazurov/udevzero/internal/monitoring"
	"github.com/smazurov/udevzero/internal/udev"
	"github.com/smazurov/udevzero/internal/udev/device"
	"github.com/smazurov/udevzero/internal/udev/monitor"
)

// Server represents the Huma v2 API server fronting the device factory and
// uevent monitor.
type Server struct {
	api     huma.API
	mux     *http.ServeMux
	options *Options

	root        *udev.Root
	factory     *device.Factory
	eventBus    *events.Bus
	udevMonitor *monitoring.UdevMonitor
}

// basicAuthMiddleware creates middleware for HTTP basic authentication
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Skip auth for operations without security requirements
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		// Try Authorization header first
		authHeader := ctx.Header("Authorization")
		var credentials string
		var parts []string

		if authHeader != "" {
			// Parse "Basic <credentials>" format
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid authentication type")
				return
			}

			// Decode base64 credentials
			encoded := authHeader[len(prefix):]
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
				return
			}

			credentials = string(decoded)
		} else {
			// For SSE endpoints, try query parameters as fallback
			queryAuth := ctx.Query("auth")
			if queryAuth != "" {
				decoded, err := base64.StdEncoding.DecodeString(queryAuth)
				if err != nil {
					ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
					huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
					return
				}
				credentials = string(decoded)
			}
		}

		if credentials == "" {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		// Split username:password
		parts = strings.SplitN(credentials, ":", 2)
		if len(parts) != 2 {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format")
			return
		}

		// Validate credentials
		if parts[0] != username || parts[1] != password {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="udevzero API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		// Continue to next handler
		next(ctx)
	}
}

// Options holds the server's runtime configuration.
type Options struct {
	AuthUsername string
	AuthPassword string

	// MonitorTransport selects the uevent source: "netlink" (default) or
	// "dropbox".
	MonitorTransport string
	// DropboxDir is the directory watched when MonitorTransport is
	// "dropbox".
	DropboxDir string
	// NetlinkGroup is the multicast group bound when MonitorTransport is
	// "netlink": monitor.GroupKernel (default) or monitor.GroupUdev.
	NetlinkGroup uint32
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	// Configure CORS
	corsConfig := DefaultCORSConfig()

	// Add CORS preflight handler for all OPTIONS requests
	AddCORSHandler(mux, corsConfig)

	// Create Huma API with Go standard library adapter
	config := huma.DefaultConfig("udevzero API", "1.0.0")
	config.Info.Description = "Sysfs device enumeration and uevent monitoring"
	config.Servers = []*huma.Server{
		{URL: "http://localhost:8090", Description: "Development server"},
	}

	// Configure basic auth security scheme
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	root := udev.New()

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		root:     root,
		factory:  device.NewFactory(root),
		eventBus: events.New(),
	}

	// Apply CORS middleware first (before auth)
	api.UseMiddleware(NewCORSMiddleware(corsConfig))

	// Apply basic auth middleware globally if credentials are provided
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Register routes
	server.registerRoutes()

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

func (s *Server) monitorOptions() []monitoring.Option {
	if s.options.MonitorTransport == "dropbox" {
		return []monitoring.Option{monitoring.WithDropbox(s.options.DropboxDir)}
	}
	group := s.options.NetlinkGroup
	if group == 0 {
		group = monitor.GroupKernel
	}
	return []monitoring.Option{monitoring.WithNetlinkGroup(group)}
}

// Start starts the udev monitor and the HTTP server on addr.
func (s *Server) Start(addr string) error {
	fmt.Printf("Starting udevzero API server on %s\n", addr)
	fmt.Printf("OpenAPI documentation available at: http://%s/docs\n", addr)

	s.udevMonitor = monitoring.NewUdevMonitor(s.eventBus, logging.GetLogger("monitoring"), s.monitorOptions()...)
	if err := s.udevMonitor.Start(); err != nil {
		fmt.Printf("Warning: failed to start udev monitor: %v\n", err)
	}

	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the udev monitor.
func (s *Server) Stop() error {
	if s.udevMonitor != nil {
		s.udevMonitor.Stop()
	}
	s.root.Unref()
	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	// Health check endpoint - no auth required
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	s.registerDeviceRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerMetricsRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
