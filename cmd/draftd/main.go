// Command draftd serves draft records over HTTP so browser clients can sync
// drafts to a shared backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kbukum/draftkit/bootstrap"
	"github.com/kbukum/draftkit/config"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/version"
)

var (
	configFile = flag.String("config", "", "path to config.yml (searched in the usual locations when empty)")
	envFile    = flag.String("env", "", "path to a .env file")
	cleanup    = flag.Duration("cleanup", 0, "remove drafts older than this age and exit")
	showVer    = flag.Bool("version", false, "print the build version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.Get())
		return
	}
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "draftd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	var cfg Config
	cfg.Version = version.Get().String()
	if err := config.LoadConfig("draftd", &cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	shutdown, err := initObservability(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(shutdown)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc, err := wire(runCtx, app)
	if err != nil {
		return err
	}

	if *cleanup > 0 {
		return app.RunTask(ctx, func(ctx context.Context) error {
			start := time.Now()
			res, err := svc.maint.Cleanup(ctx, *cleanup)
			if err != nil {
				return err
			}
			app.Logger.Info("Cleanup finished", logger.Fields(
				"removed", len(res.Removed),
				"corrupt", res.Corrupt,
				"scanned", res.Scanned,
				logger.FieldDuration, time.Since(start).String(),
			))
			return nil
		})
	}
	return app.Run(ctx)
}
