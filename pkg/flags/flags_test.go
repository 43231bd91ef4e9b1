package flags_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pubauth/pkg/flags"
)

func TestEnabled(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		cfg      flags.Configuration
		expected bool
	}{
		{"nil", nil, false},
		{"empty", flags.Configuration{}, false},
		{"true", flags.Configuration{flags.V3AuthenticatePublic: true}, true},
		{"false", flags.Configuration{flags.V3AuthenticatePublic: false}, false},
		{"enabled marker", flags.Configuration{flags.V3AuthenticatePublic: "Enabled"}, true},
		{"on marker", flags.Configuration{flags.V3AuthenticatePublic: "on"}, true},
		{"version marker", flags.Configuration{flags.V3AuthenticatePublic: "2024-07"}, false},
		{"number", flags.Configuration{flags.V3AuthenticatePublic: 1}, false},
		{"other flag", flags.Configuration{"unstable_newEmbeddedAuthStrategy": true}, false},
	}
	for _, tt := range testCases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, flags.Enabled(flags.V3AuthenticatePublic, tt.cfg))
			require.Equal(t, tt.expected, tt.cfg.Enabled(flags.V3AuthenticatePublic))
		})
	}
}

func TestFromDocument(t *testing.T) {
	t.Parallel()

	cfg, err := flags.FromDocument(map[string]any{
		"apiVersion": "2024-07",
		"future":     map[string]any{"v3_authenticatePublic": true},
	})
	require.NoError(t, err)
	require.True(t, cfg.Enabled(flags.V3AuthenticatePublic))
	require.NotContains(t, cfg, "apiVersion")

	cfg, err = flags.FromDocument(map[string]any{"v3_authenticatePublic": true})
	require.NoError(t, err)
	require.True(t, cfg.Enabled(flags.V3AuthenticatePublic))

	cfg, err = flags.FromDocument(map[string]any{"future": nil, "v3_authenticatePublic": true})
	require.NoError(t, err)
	require.Empty(t, cfg)
	require.False(t, cfg.Enabled(flags.V3AuthenticatePublic))

	_, err = flags.FromDocument(map[string]any{"future": "yes"})
	require.Error(t, err)

	cfg, err = flags.FromDocument(nil)
	require.NoError(t, err)
	require.Empty(t, cfg)

	_, err = flags.FromDocument([]any{"x"})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"future": map[string]any{"v3_authenticatePublic": "enabled"}}
	v, err := flags.Lookup("future.v3_authenticatePublic", doc)
	require.NoError(t, err)
	require.Equal(t, "enabled", v)

	_, err = flags.Lookup(" ", doc)
	require.Error(t, err)
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	cfg, err := flags.ParseEnv("v3_authenticatePublic=true, marker=2024-07, bare")
	require.NoError(t, err)
	require.Equal(t, flags.Configuration{
		"v3_authenticatePublic": true,
		"marker":                "2024-07",
		"bare":                  true,
	}, cfg)

	cfg, err = flags.ParseEnv("v3_authenticatePublic=true,callback=https://x.example.com,since=2024-07-01T00:00")
	require.NoError(t, err)
	require.True(t, cfg.Enabled(flags.V3AuthenticatePublic))
	require.Equal(t, "https://x.example.com", cfg["callback"])
	require.Equal(t, "2024-07-01T00:00", cfg["since"])

	cfg, err = flags.ParseEnv("future: {v3_authenticatePublic: on}")
	require.NoError(t, err)
	require.True(t, cfg.Enabled(flags.V3AuthenticatePublic))

	cfg, err = flags.ParseEnv(`{"future": {"v3_authenticatePublic": false}}`)
	require.NoError(t, err)
	require.False(t, cfg.Enabled(flags.V3AuthenticatePublic))
	require.Contains(t, cfg, flags.V3AuthenticatePublic)

	cfg, err = flags.ParseEnv("")
	require.NoError(t, err)
	require.Empty(t, cfg)

	_, err = flags.ParseEnv("=true")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "flags.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("future:\n  v3_authenticatePublic: true\n"), 0o600))
	cfg, err := flags.LoadFile(yamlPath)
	require.NoError(t, err)
	require.True(t, cfg.Enabled(flags.V3AuthenticatePublic))

	jsonPath := filepath.Join(dir, "flags.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"v3_authenticatePublic": false}`), 0o600))
	cfg, err = flags.LoadFile(jsonPath)
	require.NoError(t, err)
	require.False(t, cfg.Enabled(flags.V3AuthenticatePublic))

	_, err = flags.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
