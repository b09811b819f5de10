package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validHost() HostConfiguration {
	return HostConfiguration{
		ID:              "h1",
		ReceiveProtocol: ProtocolIMAP,
		ReceiveHost:     "imap.example.com",
		ReceivePort:     993,
		SendHost:        "smtp.example.com",
		SendPort:        465,
		Username:        "alice@example.com",
		Password:        "s3cret",
	}
}

func TestHostConfigurationValidate(t *testing.T) {
	require.NoError(t, validHost().Validate())

	tests := []struct {
		name   string
		mutate func(*HostConfiguration)
	}{
		{"bad protocol", func(h *HostConfiguration) { h.ReceiveProtocol = "nntp" }},
		{"no receive host", func(h *HostConfiguration) { h.ReceiveHost = "" }},
		{"no send host", func(h *HostConfiguration) { h.SendHost = "" }},
		{"no username", func(h *HostConfiguration) { h.Username = "" }},
		{"bad receive port", func(h *HostConfiguration) { h.ReceivePort = 0 }},
		{"bad send port", func(h *HostConfiguration) { h.SendPort = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := validHost()
			tc.mutate(&h)
			require.Error(t, h.Validate())
		})
	}
}

func TestAppConfigCurrentHost(t *testing.T) {
	cfg := &AppConfig{}
	require.Nil(t, cfg.CurrentHost())

	cfg.SetHost(validHost())
	host := cfg.CurrentHost()
	require.NotNil(t, host)
	require.Equal(t, "h1", host.ID)

	// SetHost with the same ID replaces in place.
	updated := validHost()
	updated.Username = "bob@example.com"
	cfg.SetHost(updated)
	require.Len(t, cfg.Hosts, 1)
	require.Equal(t, "bob@example.com", cfg.CurrentHost().Username)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{
		Display: DisplayConfig{Theme: "default", CacheEnabled: false, FetchLimit: 50},
	}
	cfg.SetHost(validHost())

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "h1", loaded.CurrentHostID)
	require.Len(t, loaded.Hosts, 1)
	require.Equal(t, "imap.example.com", loaded.Hosts[0].ReceiveHost)
	require.Equal(t, 50, loaded.Display.FetchLimit)
}

func TestPasswordNeverPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{}
	cfg.SetHost(validHost())
	require.NoError(t, SaveConfig(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "s3cret")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Empty(t, loaded.Hosts[0].Password)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.Display.CacheEnabled)
	require.Equal(t, 20, cfg.Display.FetchLimit)
	require.Empty(t, cfg.Hosts)
}

func TestLoadConfigCorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":: not yaml ::"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.Display.CacheEnabled)
}

func TestLoadConfigFillsPortDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "hosts:\n" +
		"  - id: h1\n" +
		"    receive_host: imap.example.com\n" +
		"    send_host: smtp.example.com\n" +
		"    username: alice@example.com\n" +
		"current_host_id: h1\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Hosts, 1)
	require.Equal(t, ProtocolIMAP, cfg.Hosts[0].ReceiveProtocol)
	require.Equal(t, 993, cfg.Hosts[0].ReceivePort)
	require.Equal(t, 465, cfg.Hosts[0].SendPort)
}
