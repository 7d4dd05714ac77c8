package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/api"
	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/text"
)

const ttsExtension = ".wav"

// TalkAPI is the part of the REST API the talk repository uses.
type TalkAPI interface {
	CreateTts(ctx context.Context, req api.TtsRequest) (core.Tts, error)
	GetTtsList(ctx context.Context, uid, vid string) ([]core.Tts, error)
	GetVoice(ctx context.Context, uid, vid string) (core.Voice, error)
}

// URLResolver turns a blob path into a playable URL.
type URLResolver interface {
	GetDownloadURL(ctx context.Context, objectPath string) (string, error)
}

// TalkRepository creates and lists synthesized utterances of a voice.
type TalkRepository struct {
	api        TalkAPI
	urls       URLResolver
	identity   core.IdentityProvider
	normalizer *text.Normalizer
	log        *logger.Logger
	now        func() time.Time
}

// NewTalkRepository creates a TalkRepository.
func NewTalkRepository(
	talkAPI TalkAPI,
	urls URLResolver,
	identity core.IdentityProvider,
	log *logger.Logger,
) *TalkRepository {
	return &TalkRepository{
		api:        talkAPI,
		urls:       urls,
		identity:   identity,
		normalizer: text.NewNormalizer(),
		log:        log,
		now:        time.Now,
	}
}

// CreateTts submits input for synthesis in voice vid under a fresh client
// id and returns the server's record.
func (r *TalkRepository) CreateTts(ctx context.Context, input, vid string) (core.Tts, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return core.Tts{}, err
	}

	normalized, err := r.normalizer.Normalize(input)
	if err != nil {
		return core.Tts{}, fmt.Errorf("invalid tts text: %w", err)
	}

	req := api.TtsRequest{
		Text:      normalized,
		UID:       uid,
		VID:       vid,
		TID:       newID(),
		Pitch:     0,
		Timestamp: r.now().UnixMilli(),
	}

	tts, err := r.api.CreateTts(ctx, req)
	if err != nil {
		return core.Tts{}, fmt.Errorf("failed to create tts: %w", err)
	}

	r.log.Info("Created tts %s for voice %s", tts.ID, vid)

	return tts, nil
}

// GetTalks returns the utterance history of vid in server order.
func (r *TalkRepository) GetTalks(ctx context.Context, vid string) ([]core.Tts, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return nil, err
	}

	talks, err := r.api.GetTtsList(ctx, uid, vid)
	if err != nil {
		return nil, fmt.Errorf("failed to get talks of %s: %w", vid, err)
	}

	return talks, nil
}

// GetVoice returns the metadata of vid.
func (r *TalkRepository) GetVoice(ctx context.Context, vid string) (core.Voice, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return core.Voice{}, err
	}

	voice, err := r.api.GetVoice(ctx, uid, vid)
	if err != nil {
		return core.Voice{}, fmt.Errorf("failed to get voice %s: %w", vid, err)
	}

	return voice, nil
}

// GetTtsURL resolves the playback URL of {uid}/{vid}/{tid}.wav. It returns
// "" without error when nobody is signed in.
func (r *TalkRepository) GetTtsURL(ctx context.Context, vid, tid string) (string, error) {
	identity, ok := r.identity.Current()
	if !ok || identity.UID == "" {
		return "", nil
	}

	if tid == "" {
		return "", ErrPlaceholderID
	}

	objectPath := identity.UID + "/" + vid + "/" + tid + ttsExtension

	url, err := r.urls.GetDownloadURL(ctx, objectPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve tts url: %w", err)
	}

	return url, nil
}

// WaitReady polls the talk list of vid until tid reports ready.
func (r *TalkRepository) WaitReady(ctx context.Context, vid, tid string, interval time.Duration) (core.Tts, error) {
	var ready core.Tts

	err := poll(ctx, interval, func(ctx context.Context) (bool, error) {
		talks, err := r.GetTalks(ctx, vid)
		if err != nil {
			return false, err
		}

		for _, talk := range talks {
			if talk.ID == tid && talk.Status {
				ready = talk

				return true, nil
			}
		}

		return false, nil
	})
	if err != nil {
		return core.Tts{}, err
	}

	return ready, nil
}
