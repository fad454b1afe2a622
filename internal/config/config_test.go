package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Input.Parcels = "parcels.shp"
	cfg.Input.Streets = "streets.shp"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 9.0, cfg.Engine.FrontageBuffer)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "ID", cfg.Input.Fields.ID)
	assert.Equal(t, "1521", cfg.Database.Port)
	assert.False(t, cfg.Database.Enabled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing parcels", func(c *Config) { c.Input.Parcels = "" }, true},
		{"missing streets", func(c *Config) { c.Input.Streets = "" }, true},
		{"missing id field", func(c *Config) { c.Input.Fields.ID = "" }, true},
		{"missing output", func(c *Config) { c.Output.Dir = "" }, true},
		{"bad engine", func(c *Config) { c.Engine.FrontageBuffer = 0 }, true},
		{"database without user", func(c *Config) { c.Database.Enabled = true }, true},
		{"database with user", func(c *Config) {
			c.Database.Enabled = true
			c.Database.Username = "memorial"
		}, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorial.yaml")
	content := `
engine:
  frontage_buffer: 6
  workers: 2
input:
  parcels: data/parcels.shp
  streets: data/streets.geojson
document:
  neighborhood: Vila Nova
  municipality: Palmas
  state: TO
database:
  enabled: true
  host: oracle.internal
  username: memorial
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Engine.FrontageBuffer)
	assert.Equal(t, 2, cfg.Engine.Workers)
	// untouched tunables keep their defaults
	assert.Equal(t, 0.85, cfg.Engine.BackDepthFraction)
	assert.Equal(t, "data/parcels.shp", cfg.Input.Parcels)
	assert.Equal(t, "NAME", cfg.Input.Fields.Name)
	assert.Equal(t, "Vila Nova", cfg.Document.Neighborhood)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "oracle.internal", cfg.Database.Host)
	assert.Equal(t, "XE", cfg.Database.Service)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memorial.yaml")
	cfg := validConfig()
	cfg.Document.State = "GO"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	cfg := validConfig()
	other := &Config{}
	other.Input.Others = "others.shp"
	other.Document.Municipality = "Anápolis"
	other.Log.Level = "debug"
	cfg.Merge(other)
	cfg.Merge(nil)

	assert.Equal(t, "others.shp", cfg.Input.Others)
	assert.Equal(t, "parcels.shp", cfg.Input.Parcels)
	assert.Equal(t, "Anápolis", cfg.Document.Municipality)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 9.0, cfg.Engine.FrontageBuffer)
}

func TestApplyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEMORIAL_PARCELS", "env/parcels.shp")
	t.Setenv("MEMORIAL_WORKERS", "3")
	t.Setenv("MEMORIAL_DB_ENABLED", "true")
	t.Setenv("DB_USERNAME", "scott")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := validConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "env/parcels.shp", cfg.Input.Parcels)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "scott", cfg.Database.Username)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "streets.shp", cfg.Input.Streets)
}

func TestApplyEnvRejectsBadWorkers(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEMORIAL_WORKERS", "many")

	assert.Error(t, DefaultConfig().ApplyEnv())
}

func TestApplyEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEMORIAL_STATE=TO\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MEMORIAL_STATE") })

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "TO", cfg.Document.State)
}

func TestLoadLayers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MEMORIAL_STATE", "")
	t.Setenv("MEMORIAL_PARCELS", "")
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "memorial"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, UserConfigFile),
		[]byte("document:\n  municipality: Palmas\n  state: TO\nlog:\n  level: debug\n"), 0644))

	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile),
		[]byte("input:\n  parcels: lots.shp\n  streets: roads.shp\ndocument:\n  state: GO\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Palmas", cfg.Document.Municipality)
	assert.Equal(t, "GO", cfg.Document.State, "project file wins over the user file")
	assert.Equal(t, "lots.shp", cfg.Input.Parcels)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	_, err := Load("missing.yaml")
	assert.Error(t, err)
}
