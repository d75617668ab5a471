package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgument(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Arguments
	}{
		{"empty", "", Arguments{true, true, 15 * time.Second}},
		{"all set", "true,true,20", Arguments{true, true, 20 * time.Second}},
		{"hide timezone", "false,true,10", Arguments{false, true, 10 * time.Second}},
		{"hide isp", "true,false", Arguments{true, false, 15 * time.Second}},
		{"spaces", " false , false , 5 ", Arguments{false, false, 5 * time.Second}},
		{"non numeric timeout", "true,true,abc", Arguments{true, true, 15 * time.Second}},
		{"zero timeout", "true,true,0", Arguments{true, true, 15 * time.Second}},
		{"timeout with suffix", "true,true,30s", Arguments{true, true, 30 * time.Second}},
		{"only non-false words", "yes,no", Arguments{true, true, 15 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgument(tt.in))
		})
	}
}

func TestLoadNodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodes.yaml")
	text := "nodes:\n" +
		"  - name: HK-01\n    proxy: socks5://127.0.0.1:1080\n" +
		"  - name: JP-02\n    proxy: http://10.0.0.2:8080\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	nodes, err := LoadNodes(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"HK-01": "socks5://127.0.0.1:1080",
		"JP-02": "http://10.0.0.2:8080",
	}, nodes)
}

func TestLoadNodesMissingFile(t *testing.T) {
	nodes, err := LoadNodes(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestLoadNodesRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"empty name":   "nodes:\n  - name: \"\"\n    proxy: http://a:1\n",
		"bad scheme":   "nodes:\n  - name: a\n    proxy: ftp://a:1\n",
		"no host":      "nodes:\n  - name: a\n    proxy: socks5://\n",
		"duplicate":    "nodes:\n  - name: a\n    proxy: http://a:1\n  - name: a\n    proxy: http://b:1\n",
		"invalid yaml": "nodes: [\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nodes.yaml")
			require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
			_, err := LoadNodes(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NODES_FILE", "")
	t.Setenv("TIMEOUT_SECONDS", "")
	t.Setenv("CACHE_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultWebURL, cfg.WebURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.CacheTTL)
	assert.Empty(t, cfg.Nodes)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".env", []byte("IPPURE_WEB_URL=http://example.test/\nTIMEOUT_SECONDS=7\n"), 0o644))
	// godotenv never overrides variables that are already set.
	os.Unsetenv("IPPURE_WEB_URL")
	os.Unsetenv("TIMEOUT_SECONDS")
	t.Cleanup(func() {
		os.Unsetenv("IPPURE_WEB_URL")
		os.Unsetenv("TIMEOUT_SECONDS")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/", cfg.WebURL)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
