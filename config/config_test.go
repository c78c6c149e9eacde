package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
mqtt:
  broker: tcp://broker:1883
  client_id: dispatch-test
dispatch:
  scene_radius_m: 200
routing:
  average_speed_kmh: 50
metrics:
  prometheus_enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	require.Equal(t, 200.0, cfg.Dispatch.SceneRadiusM)
	require.Equal(t, 50.0, cfg.Routing.AverageSpeedKMH)
	require.True(t, cfg.Metrics.PrometheusEnabled)

	// Defaults fill in everything not set.
	require.Equal(t, 5, cfg.Dispatch.MatchIntervalSeconds)
	require.Equal(t, "fleet/+/location", cfg.MQTT.LocationTopic)
	require.Equal(t, ":8080", cfg.APIAddr)
	require.Equal(t, 85.0, cfg.Priority.CriticalThreshold)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"api_addr": ":9999"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.APIAddr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_MQTT__BROKER", "tcp://override:1883")
	path := writeConfig(t, "config.yaml", "mqtt:\n  broker: tcp://file:1883\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://override:1883", cfg.MQTT.Broker)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", "broker = 1")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	path := writeConfig(t, "config.yaml", "priority:\n  critical_threshold: 10\n")
	_, err := Load(path)
	require.Error(t, err)
}
