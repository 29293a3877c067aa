package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/udevzero/cmd"
	"github.com/smazurov/udevzero/internal/api"
	"github.com/smazurov/udevzero/internal/config"
	"github.com/smazurov/udevzero/internal/logging"
	"github.com/smazurov/udevzero/internal/udev/monitor"
)

// Options is the flat CLI/env/TOML option set for the serve command.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	AuthUsername string `help:"Basic auth username" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	MonitorTransport string `help:"Uevent transport: netlink or dropbox" default:"netlink" toml:"monitor.transport" env:"MONITOR_TRANSPORT"`
	MonitorDropbox   string `help:"Drop-box directory watched when transport is dropbox" default:"/run/udevzero/dropbox" toml:"monitor.dropbox_dir" env:"MONITOR_DROPBOX_DIR"`
	MonitorUdevGroup bool   `help:"Bind the udev multicast group instead of the kernel group" default:"false" toml:"monitor.udev_group" env:"MONITOR_UDEV_GROUP"`

	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDevice  string `help:"Device package logging level" default:"info" toml:"logging.device" env:"LOGGING_DEVICE"`
	LoggingEnumer  string `help:"Enumerate package logging level" default:"info" toml:"logging.enumerate" env:"LOGGING_ENUMERATE"`
	LoggingMonitor string `help:"Monitor package logging level" default:"info" toml:"logging.monitor" env:"LOGGING_MONITOR"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			os.Stderr.WriteString("warning: failed to load config: " + loadErr.Error() + "\n")
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"device":    opts.LoggingDevice,
				"enumerate": opts.LoggingEnumer,
				"monitor":   opts.LoggingMonitor,
				"api":       opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		apiOpts := &api.Options{
			AuthUsername:     opts.AuthUsername,
			AuthPassword:     opts.AuthPassword,
			MonitorTransport: opts.MonitorTransport,
			DropboxDir:       opts.MonitorDropbox,
		}
		if opts.MonitorUdevGroup {
			apiOpts.NetlinkGroup = monitor.GroupUdev
		}

		server := api.NewServer(apiOpts)

		hooks.OnStart(func() {
			logger.Info("starting server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("failed to start server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("error stopping server", "error", stopErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateEnumerateCmd())
	cli.Root().AddCommand(cmd.CreateMonitorCmd())
	cli.Root().AddCommand(cmd.CreateInfoCmd())

	cli.Run()
}
