package server

import (
	"testing"
	"time"
)

func TestLoadMirrorConfig_CompleteGate(t *testing.T) {
	tests := []struct {
		name                           string
		endpoint, access, secret, bucket string
		wantComplete                   bool
	}{
		{"all set", "minio:9000", "ak", "sk", "uploads", true},
		{"missing endpoint", "", "ak", "sk", "uploads", false},
		{"missing access key", "minio:9000", "", "sk", "uploads", false},
		{"missing secret key", "minio:9000", "ak", "", "uploads", false},
		{"missing bucket", "minio:9000", "ak", "sk", "", false},
		{"nothing set", "", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("S3_ENDPOINT", tt.endpoint)
			t.Setenv("S3_ACCESS_KEY", tt.access)
			t.Setenv("S3_SECRET_KEY", tt.secret)
			t.Setenv("S3_BUCKET", tt.bucket)

			cfg := LoadMirrorConfig()
			if cfg.Complete() != tt.wantComplete {
				t.Errorf("Complete() = %v, want %v", cfg.Complete(), tt.wantComplete)
			}
		})
	}
}

func TestLoadMirrorConfig_Timeout(t *testing.T) {
	t.Setenv("S3_TIMEOUT", "90s")

	cfg := LoadMirrorConfig()
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %s", cfg.Timeout)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"bare host port", "minio:9000", "minio:9000", false, false},
		{"http scheme", "http://minio:9000", "minio:9000", false, false},
		{"https scheme", "https://storage.example.com", "storage.example.com", true, false},
		{"trailing slash", "http://minio:9000/", "minio:9000", false, false},
		{"with path", "http://minio:9000/bucket", "", false, true},
		{"empty", "", "", false, true},
		{"whitespace only", "   ", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := normalizeEndpoint(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if host != tt.wantHost || secure != tt.wantSecure {
				t.Errorf("normalizeEndpoint(%q) = (%q, %v), want (%q, %v)",
					tt.raw, host, secure, tt.wantHost, tt.wantSecure)
			}
		})
	}
}
