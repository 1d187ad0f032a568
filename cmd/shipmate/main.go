package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/adapters/idgen"
	"github.com/mikey-austin/shipmate/internal/adapters/output"
	"github.com/mikey-austin/shipmate/internal/control"
	"github.com/mikey-austin/shipmate/internal/shipmate"
)

type app struct {
	cfg     shipmate.Config
	log     *zap.Logger
	client  *control.Client
	creds   control.Credentials
	printer output.Printer
	quiet   bool
	json    bool
	timeout time.Duration
}

func main() {
	root := &cobra.Command{
		Use:   "shipmate",
		Short: "Synchronized group playback against a media server",
	}

	var (
		configPath string
		serverURL  string
		token      string
		deviceID   string
		userID     string
		timeout    time.Duration
		quiet      bool
		jsonOut    bool
		logLevel   string
	)

	defaultConfig, err := shipmate.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "config file path")
	root.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "media server URL")
	root.PersistentFlags().StringVar(&token, "token", "", "API token")
	root.PersistentFlags().StringVar(&deviceID, "device-id", "", "device identifier")
	root.PersistentFlags().StringVar(&userID, "user-id", "", "user identifier")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "request timeout")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := shipmate.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}
		if token != "" {
			cfg.Server.Token = token
		}
		if deviceID != "" {
			cfg.Server.DeviceID = deviceID
		}
		if userID != "" {
			cfg.Server.UserID = userID
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if cfg.Server.URL == "" {
			return errors.New("server url is required (set --server or config)")
		}
		if cfg.Server.Token == "" {
			return errors.New("token is required (set --token or config)")
		}
		if cfg.Server.DeviceID == "" {
			cfg.Server.DeviceID = idgen.Generator{}.NewID()
		}

		requestTimeout := timeout
		if requestTimeout == 0 {
			requestTimeout = cfg.Server.Timeout()
		}

		logger := shipmate.NewLogger(cfg.Log)

		creds := control.Credentials{
			ServerURL: cfg.Server.URL,
			Token:     cfg.Server.Token,
			DeviceID:  cfg.Server.DeviceID,
			UserID:    cfg.Server.UserID,
		}
		client, err := control.NewClient(logger.With(zap.String("component", "control")), creds, requestTimeout)
		if err != nil {
			return err
		}

		var printer output.Printer
		if jsonOut {
			printer = output.JSONPrinter{}
		} else {
			printer = output.HumanPrinter{}
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			cfg:     cfg,
			log:     logger,
			client:  client,
			creds:   creds,
			printer: printer,
			quiet:   quiet,
			json:    jsonOut,
			timeout: requestTimeout,
		}))
		return nil
	}

	root.AddCommand(lsCommand())
	root.AddCommand(createCommand())
	root.AddCommand(joinCommand())
	root.AddCommand(leaveCommand())
	root.AddCommand(queueCommand())
	root.AddCommand(playCommand())
	root.AddCommand(pauseCommand())
	root.AddCommand(stopCommand())
	root.AddCommand(seekCommand())
	root.AddCommand(nextCommand())
	root.AddCommand(prevCommand())
	root.AddCommand(shuffleCommand())
	root.AddCommand(repeatCommand())
	root.AddCommand(statusCommand())
	root.AddCommand(followCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (a *app) confirm(message string) error {
	if a.quiet {
		return nil
	}
	return a.printer.Print(output.RawResult{Data: message})
}
