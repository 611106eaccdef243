package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSortsByEmbeddedTimestamp(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"Skirmish Report - 15-Apr-2025 10-00-00.xml",
		"Skirmish Report - 13-Apr-2025 09-30-00.xml",
		"Skirmish Report - 14-Apr-2025 22-30-01.xml",
		"Skirmish Report - undateable.xml", // skipped with a diagnostic
		"notes.txt",                        // not a report
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<x/>"), 0o644))
	}

	files, err := Discover(dir, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Contains(t, files[0].Path, "13-Apr-2025")
	assert.Contains(t, files[1].Path, "14-Apr-2025")
	assert.Contains(t, files[2].Path, "15-Apr-2025")

	for i := 1; i < len(files); i++ {
		assert.True(t, files[i-1].PlayedAt.Before(files[i].PlayedAt))
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	require.Error(t, err)
}
