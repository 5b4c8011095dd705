package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tzrikka/bcdreview/internal/cache"
)

func TestThrippySecureCreds(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.pem")
	if err := os.WriteFile(junk, []byte("not a cert"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     ThrippyConfig
		wantErr bool
	}{
		{
			name: "insecure",
			cfg:  ThrippyConfig{Insecure: true},
		},
		{
			name:    "mtls_missing_cert",
			cfg:     ThrippyConfig{ClientKey: "key.pem"},
			wantErr: true,
		},
		{
			name:    "mtls_missing_key",
			cfg:     ThrippyConfig{ClientCert: "cert.pem"},
			wantErr: true,
		},
		{
			name:    "tls_missing_ca",
			cfg:     ThrippyConfig{ServerCACert: filepath.Join(dir, "missing.pem")},
			wantErr: true,
		},
		{
			name:    "mtls_invalid_ca",
			cfg:     ThrippyConfig{ServerCACert: junk, ClientCert: junk, ClientKey: junk},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.secureCreds()
			if (err != nil) != tt.wantErr {
				t.Errorf("secureCreds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestThrippyTokenSourceCached(t *testing.T) {
	ts := NewThrippyTokenSource(ThrippyConfig{LinkID: "link", ServerCACert: "/nonexistent"})
	if ts.cfg.TokenKey != DefaultThrippyTokenKey {
		t.Errorf("TokenKey = %q, want %q", ts.cfg.TokenKey, DefaultThrippyTokenKey)
	}

	if _, err := ts.Token(t.Context()); err == nil {
		t.Fatal("Token() error = nil, want TLS config error")
	}

	ts.tokens.Set("link", "cached", cache.DefaultExpiration)
	got, err := ts.Token(t.Context())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "cached" {
		t.Errorf("Token() = %q, want %q", got, "cached")
	}
}
