package server

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorConfig holds the object-storage settings for the upload mirror.
// Like notification it is all-or-nothing: any missing value disables it.
type MirrorConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Timeout   time.Duration
}

// LoadMirrorConfig reads S3_* from the environment.
func LoadMirrorConfig() MirrorConfig {
	timeout := 5 * time.Minute
	if v := os.Getenv("S3_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	return MirrorConfig{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Bucket:    os.Getenv("S3_BUCKET"),
		Timeout:   timeout,
	}
}

// Complete reports whether all required values are present.
func (c MirrorConfig) Complete() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// normalizeEndpoint accepts either "minio:9000" or a scheme-qualified URL
// and returns the host with the implied TLS mode.
func normalizeEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	// No scheme, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// Mirror copies validly stored uploads to an S3-compatible bucket. It is a
// best-effort side feature: the local disk stays the source of truth and
// mirror failures are never visible to the client.
type Mirror struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

// NewMirror builds the mirror and verifies the bucket exists.
func NewMirror(cfg MirrorConfig) (*Mirror, error) {
	endpoint, secure, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", cfg.Bucket)
	}

	return &Mirror{client: client, bucket: cfg.Bucket, timeout: cfg.Timeout}, nil
}

// Store uploads the file at path under <sessionID>/<name> in the bucket,
// overwriting any previous object with that key.
func (m *Mirror) Store(ctx context.Context, sessionID, name, path, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	key := sessionID + "/" + name
	_, err = m.client.PutObject(ctx, m.bucket, key, f, st.Size(),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}
