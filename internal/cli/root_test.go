package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/puppet/internal/app"
	"github.com/ayusman/puppet/internal/config"
	"github.com/ayusman/puppet/internal/store"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file pointing the store into a temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "puppet.db")
	cfgPath := filepath.Join(dir, "puppet.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  path: "+dbPath+"\n"), 0o644))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "puppet", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"serve"},
		{"sessions", "list"},
		{"sessions", "show"},
		{"sessions", "delete"},
		{"presets", "list"},
		{"presets", "export"},
		{"presets", "import"},
		{"presets", "delete"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("mock"))
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestInvalidFormat(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := execute(t, "--config", cfgPath, "--format", "xml", "sessions", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf, false)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])

	buf.Reset()
	logger, err = newLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, &buf, false)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf, false)
	assert.Error(t, err)
}

func TestPresetsImportExport(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	file := filepath.Join(t.TempDir(), "wave.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`name: wave
bones:
  rightUpperArm: [0, 0, 1.05]
  rightLowerArm: [0, 0.78, 0]
`), 0o644))

	out, err := execute(t, "--config", cfgPath, "presets", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported preset wave (2 bones)")

	// Importing again replaces the preset.
	_, err = execute(t, "--config", cfgPath, "presets", "import", file)
	require.NoError(t, err)

	out, err = execute(t, "--config", cfgPath, "--format", "json", "presets", "list")
	require.NoError(t, err)
	var presets []store.Preset
	require.NoError(t, json.Unmarshal([]byte(out), &presets))
	require.Len(t, presets, 1)
	assert.Equal(t, "wave", presets[0].Name)

	out, err = execute(t, "--config", cfgPath, "presets", "export", "wave")
	require.NoError(t, err)
	assert.Contains(t, out, "name: wave")
	assert.Contains(t, out, "rightUpperArm")

	_, err = execute(t, "--config", cfgPath, "presets", "delete", "wave")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "presets", "export", "wave")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReadPresetFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"missing name", "bones:\n  head: [0, 0, 0]\n"},
		{"unknown bone", "name: x\nbones:\n  tail: [0, 0, 0]\n"},
		{"bad yaml", "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := readPresetFile(path)
			assert.Error(t, err)
		})
	}
}

func TestSessionsCommands(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	st, err := store.New(dbPath)
	require.NoError(t, err)
	sess := &store.Session{Source: "mock"}
	require.NoError(t, st.Sessions().Create(sess))
	require.NoError(t, st.Sessions().End(sess.ID, 42))
	require.NoError(t, st.Close())

	out, err := execute(t, "--config", cfgPath, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, sess.ID)
	assert.Contains(t, out, "42")

	out, err = execute(t, "--config", cfgPath, "--format", "json", "sessions", "show", sess.ID)
	require.NoError(t, err)
	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, sess.ID, detail["id"])
	assert.Equal(t, []any{}, detail["calibrations"])

	_, err = execute(t, "--config", cfgPath, "sessions", "delete", sess.ID)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "sessions", "show", sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrayStatus(t *testing.T) {
	st := app.Status{Live: true}
	st.Calibrated[tracking.Right] = true

	ts := trayStatus(st)
	assert.True(t, ts.Live)
	assert.Equal(t, []string{"right"}, ts.Calibrated)
}

func TestFindWebDir(t *testing.T) {
	assert.Equal(t, "/srv/web", findWebDir("/srv/web"))
}
