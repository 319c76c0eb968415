package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	content := `
[index]
file = "defs.md"
min_description = 30

[placement]
threshold = 0.8

[discovery]
exclude = ["drafts_*.md"]
respect_gitignore = false

[scoring.implementations]
widgetImpl = "Widget"

[scoring.domain_files]
"api_widgets.md" = "widgets"

[[scoring.keywords]]
keyword = "gizmo"
section = "Widget Types"

[watch]
debounce = "1s"
`
	cfg, err := Parse(content)
	require.NoError(t, err)

	assert.Equal(t, "defs.md", cfg.Index.File)
	assert.Equal(t, 30, cfg.Index.MinDescription)
	assert.InDelta(t, 0.8, cfg.Placement.Threshold, 1e-9)
	assert.InDelta(t, DefaultKeywordCap, cfg.Placement.KeywordCap, 1e-9)
	assert.Equal(t, []string{"drafts_*.md"}, cfg.Discovery.Exclude)
	assert.False(t, cfg.Discovery.GitignoreEnabled())
	assert.Equal(t, "Widget", cfg.Scoring.Implementations["widgetImpl"])
	assert.Equal(t, "widgets", cfg.Scoring.DomainFiles["api_widgets.md"])
	require.Len(t, cfg.Scoring.Keywords, 1)
	assert.Equal(t, "medium", cfg.Scoring.Keywords[0].Strength)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, DefaultIndexFile, cfg.Index.File)
	assert.Equal(t, DefaultMinDescription, cfg.Index.MinDescription)
	assert.InDelta(t, DefaultThreshold, cfg.Placement.Threshold, 1e-9)
	assert.True(t, cfg.Discovery.GitignoreEnabled())
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"threshold range", "[placement]\nthreshold = 1.5\n", "placement.threshold"},
		{"bad glob", "[discovery]\nexclude = [\"[\"]\n", "discovery.exclude"},
		{"bad strength", "[[scoring.keywords]]\nkeyword = \"x\"\nsection = \"Y\"\nstrength = \"huge\"\n", "strength"},
		{"nested index file", "[index]\nfile = \"docs/index.md\"\n", "index.file"},
		{"unknown key", "[index]\nfiel = \"x.md\"\n", "unknown keys"},
		{"syntax", "[index\n", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.content)
			require.Error(t, err)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := LoadOptional(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultIndexFile, cfg.Index.File)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("[index]\nfile = \"x.md\"\n"), 0o644))
	cfg, err = LoadOptional(path)
	require.NoError(t, err)
	assert.Equal(t, "x.md", cfg.Index.File)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DEFSINDEX_PLACEMENT_THRESHOLD", "0.9")
	t.Setenv("DEFSINDEX_INDEX_FILE", "other.md")
	t.Setenv("DEFSINDEX_WATCH_DEBOUNCE", "not-a-duration")

	cfg := Default()
	ApplyEnvOverrides(cfg)
	assert.InDelta(t, 0.9, cfg.Placement.Threshold, 1e-9)
	assert.Equal(t, "other.md", cfg.Index.File)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
}
