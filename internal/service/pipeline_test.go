package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulous-ladder/internal/api"
	"nebulous-ladder/internal/config"
	"nebulous-ladder/internal/database"
	"nebulous-ladder/internal/ladder"
	"nebulous-ladder/internal/rating"
	"nebulous-ladder/internal/repository"
)

func writeReport(t *testing.T, dir, stamp, winner string, duration int) {
	t.Helper()
	doc := fmt.Sprintf(`<FullAfterActionReport>
<GameStartTimestamp>1713100000</GameStartTimestamp>
<GameDuration>%d</GameDuration>
<GameFinished>true</GameFinished>
<WinningTeam>%s</WinningTeam>
<Teams>
<TeamReportOfShipBattleReport><TeamID>TeamA</TeamID><Players>
<AARPlayerReportOfShipBattleReport><PlayerName>alice</PlayerName><AccountId><Value>1</Value></AccountId>
<Ships><ShipBattleReport><HullKey>Stock/Raines Frigate</HullKey></ShipBattleReport></Ships>
</AARPlayerReportOfShipBattleReport>
</Players></TeamReportOfShipBattleReport>
<TeamReportOfShipBattleReport><TeamID>TeamB</TeamID><Players>
<AARPlayerReportOfShipBattleReport><PlayerName>bob</PlayerName><AccountId><Value>2</Value></AccountId>
<Ships><ShipBattleReport><HullKey>Stock/Shuttle</HullKey></ShipBattleReport></Ships>
</AARPlayerReportOfShipBattleReport>
</Players></TeamReportOfShipBattleReport>
</Teams>
</FullAfterActionReport>`, duration, winner)

	name := fmt.Sprintf("Skirmish Report - %s.xml", stamp)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ReportsDir:      filepath.Join(dir, "reports"),
		DBPath:          filepath.Join(dir, "ladder.db"),
		AdjustmentsPath: filepath.Join(dir, "rank_adjustments.json"),
		OutputDir:       filepath.Join(dir, "docs"),
	}
	require.NoError(t, os.MkdirAll(cfg.ReportsDir, 0o755))

	writeReport(t, cfg.ReportsDir, "14-Apr-2025 22-30-01", "TeamA", 1800)
	writeReport(t, cfg.ReportsDir, "15-Apr-2025 20-00-00", "TeamB", 2400)
	// too short to be a real game, must be skipped without mutation
	writeReport(t, cfg.ReportsDir, "16-Apr-2025 20-00-00", "TeamA", 120)

	adjustments := `[{"steam_id":"2","steam_name":"bob","mu_adjustment":1.5,"reason_for_adjustment":"ruling"}]`
	require.NoError(t, os.WriteFile(cfg.AdjustmentsPath, []byte(adjustments), 0o644))

	sqlDB, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zerolog.Nop()
	svc := rating.NewService()
	db := ladder.NewDatabase(svc)
	processor := ladder.NewProcessor(db, svc, logger)
	snapshots := NewSnapshotService(
		repository.NewPlayerRepository(sqlDB, logger),
		repository.NewHistoryRepository(sqlDB, logger),
		repository.NewMatchRepository(sqlDB, logger),
		logger,
	)
	pipeline := NewPipeline(cfg, db, processor,
		api.NewArchiveClient(cfg, logger), snapshots, NewExporter(cfg, logger), logger)

	require.NoError(t, pipeline.Run(context.Background()))

	// only the two plausible matches were folded
	require.Len(t, processor.History(), 2)
	assert.Equal(t, 2, db.Len())

	alice, ok := db.Get("1")
	require.True(t, ok)
	assert.Equal(t, 2, alice.GamesPlayed)
	assert.Equal(t, 1, alice.Wins)
	assert.Len(t, alice.History, 2)

	// the manual adjustment landed after the fold
	bob, ok := db.Get("2")
	require.True(t, ok)

	playerRepo := repository.NewPlayerRepository(sqlDB, logger)
	stored, err := playerRepo.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.InDelta(t, bob.Rating.Mu, stored.Rating.Mu, 1e-9)

	for _, name := range []string{"leaderboard.json", "match_history.json", "rank_histogram.json"} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, err, name)
	}
}
