package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pagewright/internal/config"
	"github.com/conneroisu/pagewright/internal/editor"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/persistence"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/server"
	"github.com/conneroisu/pagewright/internal/types"
	"github.com/conneroisu/pagewright/internal/watcher"
)

var servePageID string

// serveCmd starts the editor server over one page document.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the page editor server",
	Long: `Start the Pagewright editor server: loads component definitions,
opens (or creates) the requested page, and serves the operations API,
preview, and live-update WebSocket.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addServerFlags(serveCmd.Flags())
	serveCmd.Flags().StringVar(&servePageID, "page", "index", "page id to open")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: "text",
		Output: os.Stderr,
	})
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := registry.New()
	for _, dir := range cfg.Components.DefinitionPaths {
		if err := reg.LoadDir(dir); err != nil {
			return fmt.Errorf("loading component definitions from %s: %w", dir, err)
		}
	}
	logger.Info(ctx, "component definitions loaded", "types", reg.Count())

	pages, err := persistence.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer pages.Close()

	doc, savedVersion, err := pages.Load(ctx, cfg.Storage.SiteID, servePageID)
	if errors.IsNotFoundError(err) {
		doc = types.NewDocument("Page")
		savedVersion = 0
		logger.Info(ctx, "creating new page", "page", servePageID)
	} else if err != nil {
		return err
	}

	ed := editor.New(doc, reg, logger)

	if cfg.Development.HotReload {
		if err := startDefinitionReload(ctx, cfg, reg, logger); err != nil {
			logger.Warn(ctx, err, "definition hot reload disabled")
		}
	}

	srv := server.New(cfg, ed, pages, nil, servePageID, savedVersion, logger)
	return srv.Start(ctx)
}

// startDefinitionReload watches the definition directories and reloads the
// registry on changes. Running documents keep their nodes; removed types
// degrade to placeholders at render time.
func startDefinitionReload(ctx context.Context, cfg *config.Config, reg *registry.Registry, logger logging.Logger) error {
	fw, err := watcher.NewFileWatcher(time.Duration(cfg.Development.DebounceMs)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.YamlFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, dir := range cfg.Components.DefinitionPaths {
			if err := reg.LoadDir(dir); err != nil {
				return err
			}
		}
		logger.Info(ctx, "component definitions reloaded", "changes", len(events), "types", reg.Count())
		return nil
	})
	for _, dir := range cfg.Components.DefinitionPaths {
		if err := fw.AddRecursive(dir); err != nil {
			logger.Warn(ctx, err, "cannot watch definition path", "path", dir)
		}
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		fw.Stop()
	}()
	return nil
}
