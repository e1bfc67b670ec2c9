package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/audio"
	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/logger"
)

// AudioHandle wraps the audio resolver with shutdown capability.
type AudioHandle struct {
	audio.Resolver
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *AudioHandle) Shutdown() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// ProvideAudioResolver provides the signed-URL resolver when AUDIO_BUCKET is
// set and a pass-through resolver otherwise.
func ProvideAudioResolver(i do.Injector) (*AudioHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Audio.Bucket == "" {
		log.Info("Audio references served as-is, no bucket configured")
		return &AudioHandle{Resolver: audio.PassthroughResolver{}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	resolver, err := audio.NewGCSResolver(ctx, audio.GCSConfig{
		Bucket:          cfg.Audio.Bucket,
		TTL:             cfg.Audio.URLTTL,
		CredentialsFile: cfg.Audio.CredentialsFile,
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Audio resolver ready", "bucket", cfg.Audio.Bucket, "url_ttl", cfg.Audio.URLTTL)
	return &AudioHandle{Resolver: resolver, close: resolver.Close}, nil
}
