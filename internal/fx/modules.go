package fx

import (
	"go.uber.org/fx"

	"nebulous-ladder/internal/api"
	"nebulous-ladder/internal/config"
	"nebulous-ladder/internal/database"
	"nebulous-ladder/internal/ladder"
	"nebulous-ladder/internal/logger"
	"nebulous-ladder/internal/rating"
	"nebulous-ladder/internal/repository"
	"nebulous-ladder/internal/server"
	"nebulous-ladder/internal/service"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewHistoryRepository),
	fx.Provide(repository.NewMatchRepository),
	// rating engine + fold state
	fx.Provide(rating.NewService),
	fx.Provide(ladder.NewDatabase),
	fx.Provide(ladder.NewProcessor),
	// archive client
	fx.Provide(api.NewArchiveClient),
	// svc
	fx.Provide(service.NewSnapshotService),
	fx.Provide(service.NewExporter),
	fx.Provide(service.NewPipeline),
	// server
	fx.Provide(server.NewLadderServer),
)
