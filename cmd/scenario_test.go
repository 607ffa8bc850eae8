package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioCmd(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantErr  string
		contains []string
	}{
		{
			name:     "inherent",
			args:     []string{"inherent"},
			contains: []string{"node types:", "adjustments:", "{autoderefs: 0, autoref: &}", "methods:"},
		},
		{
			name:     "closure",
			args:     []string{"closure"},
			contains: []string{"upvar captures:", "closure types:", "closure kinds:"},
		},
		{
			name:     "ambiguous reports errors",
			args:     []string{"ambiguous"},
			wantErr:  "scenario ambiguous: 1 errors",
			contains: []string{"error: "},
		},
		{
			name:    "unknown scenario",
			args:    []string{"nope"},
			wantErr: `unknown scenario "nope"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			ScenarioCmd.SetOut(out)
			ScenarioCmd.SetErr(&bytes.Buffer{})
			ScenarioCmd.SetArgs(tc.args)
			err := ScenarioCmd.Execute()
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tc.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, &Config{}, cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tyck.yaml")
		raw := "log:\n  level: warn\n  sections: [infer, writeback]\nvariancesComputed: true\n"
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, []string{"infer", "writeback"}, cfg.Log.Sections)
		assert.True(t, cfg.VariancesComputed)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "could not read config")
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := &Config{}
		cfg.Log.Level = "loud"
		assert.ErrorContains(t, cfg.Apply(), `invalid log level "loud"`)
	})
}
