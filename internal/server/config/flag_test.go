package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		start       *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-o", ":9100", "-d", "db", "-s", "secret", "-k", "admin",
			"-t", "1", "-r", "3", "-w", "90s", "-M", "2h", "-n", "-f", "1", "-v", "debug",
			"-q", "nats://127.0.0.1:4222",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		},
			start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				EndpointAddrOps:             ":9100",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AdminKey:                    "admin",
				AccessTokenValidityDuration: 1 * time.Minute,
				SessionTTL:                  3 * time.Minute,
				SlidingWindow:               90 * time.Second,
				MaxSessionLifetime:          2 * time.Hour,
				SingleSession:               true,
				HashPolicyVersion:           1,
				LogLevel:                    "debug",
				NATSURL:                     "nats://127.0.0.1:4222",
				S3RootUser:                  "user",
				S3RootPassword:              "password",
				S3Bucket:                    "bucket",
				S3Region:                    "us-west-1",
				S3BaseEndpoint:              "http://endpoint",
			}},
		{name: "unset minute flags keep sub-minute values", args: []string{"cmd", "-a", ":1"},
			start:    &Config{AccessTokenValidityDuration: 30 * time.Second, SessionTTL: 45 * time.Second},
			expected: &Config{EndpointAddrGRPC: ":1", AccessTokenValidityDuration: 30 * time.Second, SessionTTL: 45 * time.Second}},
		{name: "foreign flags ignored", args: []string{"cmd", "-c", "x.json", "-z", "1"},
			start:    &Config{},
			expected: &Config{}},
		{name: "bad duration panics", args: []string{"cmd", "-w", "soon"},
			start: &Config{}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := tt.start

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
