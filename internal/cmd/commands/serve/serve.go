// Package serve implements the serve command: it loads (or
// bootstraps) configuration, constructs the document store and the
// authentication emulator, and runs the HTTP server until signalled.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"

	"github.com/hearthly/hearth/internal/auth"
	"github.com/hearthly/hearth/internal/cmd/base"
	"github.com/hearthly/hearth/internal/config"
	"github.com/hearthly/hearth/internal/server"
	"github.com/hearthly/hearth/pkg/resourcepath"
	"github.com/hearthly/hearth/pkg/store"
)

const shutdownGrace = 5 * time.Second

type Command struct {
	*base.Command

	flagConfig   string
	flagAddr     string
	flagProject  string
	flagDatabase string
	flagBrowser  bool
}

func (c *Command) Synopsis() string {
	return "Run the emulator (zero-config by default, or with -config)"
}

func (c *Command) Help() string {
	return `Usage: hearth serve [options]

  Run the document database and authentication emulator.

  Without -config, hearth runs with built-in defaults overlaid by
  HEARTH_* environment variables. With -config, settings come from the
  given HCL file; if the file does not exist it is created with the
  defaults so it can be edited for the next run.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("serve")
	f.StringVar(&c.flagConfig, "config", "", "Path to an HCL config file")
	f.StringVar(&c.flagAddr, "addr", "", "Listen address, overrides config")
	f.StringVar(&c.flagProject, "project", "", "Project id, overrides config")
	f.StringVar(&c.flagDatabase, "database", "", "Database id, overrides config")
	f.BoolVar(&c.flagBrowser, "browser", false, "Open the emulator page in a browser once ready")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if err := cfg.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "hearth",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	srv := &server.Server{
		Config: cfg,
		Logger: log,
		Store:  store.New(log),
	}
	if cfg.Auth != nil && cfg.Auth.Enabled {
		authSvc, err := auth.NewService(log, cfg.Auth)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error starting auth emulator: %v", err))
			return 1
		}
		srv.Auth = authSvc
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("emulator listening",
			"addr", cfg.ListenAddr,
			"database", resourcepath.Root(cfg.ProjectID, cfg.DatabaseID),
			"auth", srv.Auth != nil)
		errCh <- httpServer.ListenAndServe()
	}()

	c.printBanner(cfg)

	if c.flagBrowser {
		go c.openBrowser(log, "http://"+cfg.ListenAddr+"/")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
		return 1
	}
	return 0
}

// loadConfig resolves flags, file and environment into one Config.
func (c *Command) loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if c.flagConfig != "" {
		if _, err := os.Stat(c.flagConfig); os.IsNotExist(err) {
			c.UI.Info(fmt.Sprintf("Writing default config to %s", c.flagConfig))
			if err := config.Write(cfg, c.flagConfig); err != nil {
				return nil, fmt.Errorf("error writing config: %w", err)
			}
		} else {
			loaded, err := config.FromFile(c.flagConfig)
			if err != nil {
				return nil, fmt.Errorf("error loading config: %w", err)
			}
			cfg = loaded
		}
	}

	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}

	// Explicit flags win over file and environment.
	if c.flagAddr != "" {
		cfg.ListenAddr = c.flagAddr
	}
	if c.flagProject != "" {
		cfg.ProjectID = c.flagProject
	}
	if c.flagDatabase != "" {
		cfg.DatabaseID = c.flagDatabase
	}
	return cfg, nil
}

func (c *Command) printBanner(cfg *config.Config) {
	c.UI.Output("")
	c.UI.Output("  hearth emulator")
	c.UI.Output(fmt.Sprintf("  database:  %s", resourcepath.Root(cfg.ProjectID, cfg.DatabaseID)))
	c.UI.Output(fmt.Sprintf("  listening: http://%s", cfg.ListenAddr))
	if cfg.Auth != nil && cfg.Auth.Enabled {
		c.UI.Output(fmt.Sprintf("  auth:      http://%s/v1/accounts:signUp", cfg.ListenAddr))
	}
	c.UI.Output("")
}

// openBrowser waits for the server to answer its health probe, then
// opens the emulator page.
func (c *Command) openBrowser(log hclog.Logger, url string) {
	probe := func() error {
		resp, err := http.Get(url + "healthz")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(probe, bo); err != nil {
		log.Warn("server not ready, skipping browser launch", "error", err)
		return
	}
	if err := browser.OpenURL(url); err != nil {
		log.Warn("could not open browser", "error", err)
	}
}
