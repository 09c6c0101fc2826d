package cvdash_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/cvdash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		content  string
		url      string
		timeout  time.Duration
		interval time.Duration
		store    string
		err      bool
	}{
		{
			desc: "full file",
			content: `
[remote]
url = "https://dash.example.com"
tls_verification = true
timeout = "3s"

[session]
store_path = "/tmp/cvdash-session"

[poll]
interval = "500ms"
`,
			url:      "https://dash.example.com",
			timeout:  3 * time.Second,
			interval: 500 * time.Millisecond,
			store:    "/tmp/cvdash-session",
		},
		{
			desc: "missing keys keep defaults",
			content: `
[remote]
url = "http://10.0.0.2:8080"
`,
			url:      "http://10.0.0.2:8080",
			timeout:  cvdash.DefTimeout,
			interval: cvdash.DefPollInterval,
		},
		{
			desc:    "bad duration",
			content: "[poll]\ninterval = \"soon\"\n",
			err:     true,
		},
		{
			desc:    "not toml",
			content: "[remote\nurl=",
			err:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			cfg, err := cvdash.LoadConfig(path)
			if tc.err {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.url, cfg.Remote.URL)
			assert.Equal(t, tc.timeout, cfg.RemoteTimeout())
			assert.Equal(t, tc.interval, cfg.PollInterval())
			if tc.store != "" {
				assert.Equal(t, tc.store, cfg.Session.StorePath)
			} else {
				assert.NotEmpty(t, cfg.Session.StorePath)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := cvdash.LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
