// Package audio turns a joke's default_audio_id into a playable URL.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Resolver maps an opaque audio reference to a URL clients can fetch.
type Resolver interface {
	URL(ctx context.Context, ref string) (string, error)
}

// PassthroughResolver returns references unchanged. It is used when no
// bucket is configured and references are already URLs.
type PassthroughResolver struct{}

// URL implements Resolver.
func (PassthroughResolver) URL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// bucketSigner is satisfied by *storage.BucketHandle.
type bucketSigner interface {
	SignedURL(object string, opts *storage.SignedURLOptions) (string, error)
}

// GCSResolver signs time-limited GET URLs for objects in Cloud Storage.
//
// A reference is either an object name in the default bucket
// ("audio/joke-1.mp3"), a gs:// URI naming any bucket, or an http(s) URL,
// which is returned as is.
type GCSResolver struct {
	client  *storage.Client
	buckets func(name string) bucketSigner
	bucket  string
	ttl     time.Duration
	logger  *slog.Logger
}

var _ Resolver = (*GCSResolver)(nil)

// GCSConfig configures a GCSResolver.
type GCSConfig struct {
	Bucket string
	TTL    time.Duration
	// CredentialsFile is a service account JSON. Empty uses Application
	// Default Credentials, which can sign only on GCE or with a key.
	CredentialsFile string
}

// NewGCSResolver creates a Cloud Storage client for cfg.Bucket.
func NewGCSResolver(ctx context.Context, cfg GCSConfig, logger *slog.Logger) (*GCSResolver, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	r := newGCSResolver(func(name string) bucketSigner { return client.Bucket(name) }, cfg.Bucket, cfg.TTL, logger)
	r.client = client
	return r, nil
}

func newGCSResolver(buckets func(string) bucketSigner, bucket string, ttl time.Duration, logger *slog.Logger) *GCSResolver {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GCSResolver{buckets: buckets, bucket: bucket, ttl: ttl, logger: logger}
}

// URL implements Resolver.
func (r *GCSResolver) URL(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if isHTTP(ref) {
		return ref, nil
	}

	bucket, object := r.bucket, strings.TrimPrefix(ref, "/")
	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		bucket, object, _ = strings.Cut(rest, "/")
	}
	if bucket == "" || object == "" {
		return "", fmt.Errorf("invalid audio reference %q", ref)
	}

	signed, err := r.buckets(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(r.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign audio url for gs://%s/%s: %w", bucket, object, err)
	}
	r.logger.Debug("signed audio url", "bucket", bucket, "object", object, "ttl", r.ttl)
	return signed, nil
}

// Close releases the storage client.
func (r *GCSResolver) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func isHTTP(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
