package main

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	fxmodules "nebulous-ladder/internal/fx"
	"nebulous-ladder/internal/service"
)

// ladder is the batch entrypoint: fold all battle reports, apply manual
// adjustments, persist the snapshot, export the reporting artifacts, exit.
func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runPipeline),
	).Run()
}

func runPipeline(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	pipeline *service.Pipeline,
	db *sql.DB,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := pipeline.Run(context.Background()); err != nil {
					logger.Error().Err(err).Msg("ladder run failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing snapshot database")
			}
			return nil
		},
	})
}
