package audio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	bucket string
	got    *[]string
	err    error
}

func (f fakeSigner) SignedURL(object string, opts *storage.SignedURLOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	*f.got = append(*f.got, f.bucket+"/"+object)
	return "https://signed.example/" + f.bucket + "/" + object + "?method=" + opts.Method, nil
}

func newTestResolver(err error) (*GCSResolver, *[]string) {
	var calls []string
	r := newGCSResolver(func(name string) bucketSigner {
		return fakeSigner{bucket: name, got: &calls, err: err}
	}, "punchline-audio", time.Minute, nil)
	return r, &calls
}

func TestGCSResolver(t *testing.T) {
	r, calls := newTestResolver(nil)
	ctx := context.Background()

	url, err := r.URL(ctx, "audio/joke-1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/punchline-audio/audio/joke-1.mp3?method=GET", url)

	url, err = r.URL(ctx, "gs://other-bucket/clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/other-bucket/clip.wav?method=GET", url)

	url, err = r.URL(ctx, "https://cdn.example/clip.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/clip.mp3", url)

	url, err = r.URL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, url)

	assert.Equal(t, []string{"punchline-audio/audio/joke-1.mp3", "other-bucket/clip.wav"}, *calls)
}

func TestGCSResolver_Errors(t *testing.T) {
	r, _ := newTestResolver(errors.New("no signing credentials"))
	_, err := r.URL(context.Background(), "audio/joke-1.mp3")
	assert.ErrorContains(t, err, "no signing credentials")

	_, err = r.URL(context.Background(), "gs://bucket-only")
	assert.ErrorContains(t, err, "invalid audio reference")
}

func TestPassthroughResolver(t *testing.T) {
	url, err := PassthroughResolver{}.URL(context.Background(), "voice-123")
	require.NoError(t, err)
	assert.Equal(t, "voice-123", url)
}

func TestNewGCSResolver_UsesCredentialsFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "service-account.json")

	_, err := NewGCSResolver(context.Background(), GCSConfig{
		Bucket:          "punchline-audio",
		CredentialsFile: missing,
	}, nil)
	assert.ErrorContains(t, err, "create storage client")
}
