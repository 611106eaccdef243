package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nebulous-ladder/internal/api"
	"nebulous-ladder/internal/config"
	"nebulous-ladder/internal/ladder"
	"nebulous-ladder/internal/report"
)

// Pipeline is the batch driver: mirror, discover, parse, fold, adjust,
// persist, export. All mutable state (player database, match history,
// histogram) is owned here and threaded explicitly through each stage;
// processing is strictly sequential because the fold is order-dependent.
type Pipeline struct {
	cfg       *config.Config
	db        *ladder.Database
	processor *ladder.Processor
	archive   *api.ArchiveClient
	snapshots *SnapshotService
	exporter  *Exporter
	logger    zerolog.Logger
}

func NewPipeline(
	cfg *config.Config,
	db *ladder.Database,
	processor *ladder.Processor,
	archive *api.ArchiveClient,
	snapshots *SnapshotService,
	exporter *Exporter,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		processor: processor,
		archive:   archive,
		snapshots: snapshots,
		exporter:  exporter,
		logger:    logger,
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.logger.With().Str("run_id", uuid.NewString()).Logger()

	if err := p.archive.Mirror(ctx, p.cfg.ReportsDir); err != nil {
		logger.Warn().Err(err).Msg("archive mirror failed, folding local reports only")
	}

	files, err := report.Discover(p.cfg.ReportsDir, logger)
	if err != nil {
		return err
	}

	histogram := ladder.NewHistogram()

	for i, f := range files {
		fileLogger := logger.With().Str("file", f.Path).Logger()

		raw, err := os.ReadFile(f.Path)
		if err != nil {
			fileLogger.Error().Err(err).Msg("cannot read battle report, skipping")
			continue
		}

		match, err := report.Parse(raw, f.PlayedAt)
		if err != nil {
			fileLogger.Error().Err(err).Msg("discarding malformed battle report")
			continue
		}

		if err := p.processor.Process(match); err != nil {
			if isSkip(err) {
				fileLogger.Warn().Err(err).Time("played_at", f.PlayedAt).Msg("skipping battle report")
				continue
			}
			// a failure inside an otherwise-valid match could leave the
			// database half-applied; abort the run
			return fmt.Errorf("process %s: %w", f.Path, err)
		}

		histogram.Update(p.db, i)
		fileLogger.Info().Time("played_at", f.PlayedAt).Msg("battle report processed")
	}

	adjustments := ladder.LoadAdjustments(p.cfg.AdjustmentsPath, logger)
	ladder.ApplyAdjustments(p.db, adjustments, logger)

	if err := p.snapshots.Persist(ctx, p.db, p.processor.History()); err != nil {
		return err
	}
	if err := p.exporter.Export(ctx, p.db, p.processor.History(), histogram); err != nil {
		return err
	}

	logger.Info().
		Int("players", p.db.Len()).
		Int("matches", len(p.processor.History())).
		Msg("ladder run complete")
	return nil
}

func isSkip(err error) bool {
	return errors.Is(err, ladder.ErrInvalidMatch) ||
		errors.Is(err, ladder.ErrTeamCount) ||
		errors.Is(err, ladder.ErrEmptyRoster) ||
		errors.Is(err, ladder.ErrUnresolvedWinner)
}
