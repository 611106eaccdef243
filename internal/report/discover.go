package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// File is one discovered battle report with its embedded timestamp.
type File struct {
	Path     string
	PlayedAt time.Time
}

// Discover lists the battle reports under dir in ascending timestamp
// order. Processing order matters: rating history is an ordered fold.
// Files whose names carry no recognizable timestamp are reported and
// left out.
func Discover(dir string, logger zerolog.Logger) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}

		playedAt, err := ParseReportTime(e.Name())
		if err != nil {
			logger.Error().Err(err).Str("file", e.Name()).Msg("cannot date battle report, leaving it out")
			continue
		}

		files = append(files, File{
			Path:     filepath.Join(dir, e.Name()),
			PlayedAt: playedAt,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].PlayedAt.Before(files[j].PlayedAt)
	})

	logger.Debug().Int("count", len(files)).Str("dir", dir).Msg("battle reports discovered")
	return files, nil
}
