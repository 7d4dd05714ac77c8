package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/api"
	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/fsutil"
)

// DefaultLanguage is the language code sent with finalize and synthesize.
const DefaultLanguage = "KOR"

// VoiceAPI is the part of the REST API the voice repository uses.
type VoiceAPI interface {
	GetVoice(ctx context.Context, uid, vid string) (core.Voice, error)
	GetVoiceList(ctx context.Context, uid string) ([]core.Voice, error)
	UploadRecording(ctx context.Context, req api.RecordingRequest) error
	GetRecordingStatus(ctx context.Context, uid string) (api.RecordingRequest, error)
	RemoveRecording(ctx context.Context, req api.UIDRequest) error
	FinishRecording(ctx context.Context, req api.VoiceRequest) error
	SynthesizeVoice(ctx context.Context, req api.SynthRequest) (core.Voice, error)
}

// BlobUploader stores segment audio.
type BlobUploader interface {
	UploadFile(ctx context.Context, uid, vid, filename string, data []byte) error
}

// VoiceRepository orchestrates a recording session: prompts, segment
// uploads, finalization, and synthesis of new voices from existing ones.
//
// It holds a single working session. Beginning a new session replaces the
// previous one.
type VoiceRepository struct {
	api      VoiceAPI
	blob     BlobUploader
	identity core.IdentityProvider
	log      *logger.Logger
	scripts  Scripts
	language string

	mu             sync.Mutex
	workingVoiceID string
	workingPath    string

	inflight sync.WaitGroup
}

// NewVoiceRepository creates a VoiceRepository. An empty language falls back
// to DefaultLanguage.
func NewVoiceRepository(
	voiceAPI VoiceAPI,
	blob BlobUploader,
	identity core.IdentityProvider,
	scripts Scripts,
	language string,
	log *logger.Logger,
) *VoiceRepository {
	if language == "" {
		language = DefaultLanguage
	}

	return &VoiceRepository{
		api:      voiceAPI,
		blob:     blob,
		identity: identity,
		log:      log,
		scripts:  scripts,
		language: language,
	}
}

// Script returns the 1-based prompt, or "" when index is out of range.
func (r *VoiceRepository) Script(index int) string {
	return r.scripts.Get(index)
}

// ScriptCount returns the number of prompts.
func (r *VoiceRepository) ScriptCount() int {
	return r.scripts.Count()
}

// BeginSession starts a recording session whose segments live in path.
func (r *VoiceRepository) BeginSession(path string) error {
	if path == "" {
		return ErrPathEmpty
	}

	err := fsutil.EnsureDir(path)
	if err != nil {
		return fmt.Errorf("failed to prepare recording directory: %w", err)
	}

	vid := newID()

	r.mu.Lock()
	r.workingVoiceID = vid
	r.workingPath = path
	r.mu.Unlock()

	r.log.Info("Recording session %s started in %s", vid, path)

	return nil
}

// WorkingVoiceID returns the id of the current session, or "".
func (r *VoiceRepository) WorkingVoiceID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.workingVoiceID
}

// WorkingPath returns the directory of the current session, or "".
func (r *VoiceRepository) WorkingPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.workingPath
}

// UploadSegment announces segment index to the server and stores its audio
// under {uid}/{vid}/{index}.m4a. Both legs must succeed. Nothing is rolled
// back on failure; the caller retries with the same index.
func (r *VoiceRepository) UploadSegment(ctx context.Context, index int) error {
	uid, err := uidOf(r.identity)
	if err != nil {
		return err
	}

	vid, dir := r.session()
	if vid == "" {
		return fmt.Errorf("upload segment %d: %w", index, core.ErrInvalidSession)
	}

	segment := fsutil.SegmentPath(dir, index)

	err = fsutil.RequireAudioFile(segment)
	if err != nil {
		return fmt.Errorf("upload segment %d: %w: %w", index, core.ErrInvalidSession, err)
	}

	data, err := os.ReadFile(segment)
	if err != nil {
		return fmt.Errorf("upload segment %d: %w: %w", index, core.ErrInvalidSession, err)
	}

	err = r.api.UploadRecording(ctx, api.RecordingRequest{UID: uid, VID: vid, Index: index})
	if err != nil {
		return fmt.Errorf("failed to announce segment %d: %w", index, err)
	}

	err = r.blob.UploadFile(ctx, uid, vid, fsutil.SegmentFileName(index), data)
	if err != nil {
		return fmt.Errorf("failed to store segment %d: %w", index, err)
	}

	r.log.Info("Uploaded segment %d of %s (%s)", index, vid, fsutil.FormatFileSize(int64(len(data))))

	return nil
}

// FinalizeRecording submits the session as a named voice and ends it. The
// submission runs in the background; its outcome is only logged and the
// session is cleared either way.
func (r *VoiceRepository) FinalizeRecording(ctx context.Context, name string, pitch int) error {
	uid, err := uidOf(r.identity)
	if err != nil {
		return err
	}

	vid, _ := r.session()
	if vid == "" {
		return fmt.Errorf("finalize recording: %w", core.ErrInvalidSession)
	}

	r.clearSession()

	req := api.VoiceRequest{
		UID:      uid,
		VID:      vid,
		Name:     name,
		Pitch:    pitch,
		Language: r.language,
	}

	r.dispatch(ctx, func(ctx context.Context) {
		err := r.api.FinishRecording(ctx, req)
		if err != nil {
			r.log.Error("Finalize of voice %s failed: %v", vid, err)

			return
		}

		r.log.Info("Voice %s submitted as %q", vid, name)
	})

	return nil
}

// Synthesize asks the server to blend the source voices into a new one and
// returns a placeholder immediately. The real id and readiness show up later
// in GetVoiceList.
func (r *VoiceRepository) Synthesize(ctx context.Context, vids []string, name string, pitch int) (core.Voice, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return core.Voice{}, err
	}

	req := api.SynthRequest{
		UID:      uid,
		VIDs:     append([]string(nil), vids...),
		Name:     name,
		Pitch:    pitch,
		Language: r.language,
	}

	r.dispatch(ctx, func(ctx context.Context) {
		voice, err := r.api.SynthesizeVoice(ctx, req)
		if err != nil {
			r.log.Error("Synthesis of %q failed: %v", name, err)

			return
		}

		r.log.Info("Synthesis of %q accepted as %s", name, voice.VID)
	})

	return core.Voice{
		Name:     name,
		Pitch:    pitch,
		Language: r.language,
		Status:   false,
	}, nil
}

// GetVoiceList returns every voice of the current user in server order.
func (r *VoiceRepository) GetVoiceList(ctx context.Context) ([]core.Voice, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return nil, err
	}

	voices, err := r.api.GetVoiceList(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice list: %w", err)
	}

	return voices, nil
}

// GetVoice returns a single voice of the current user.
func (r *VoiceRepository) GetVoice(ctx context.Context, vid string) (core.Voice, error) {
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

// PendingRecording returns the server's view of the unfinished recording.
func (r *VoiceRepository) PendingRecording(ctx context.Context) (api.RecordingRequest, error) {
	uid, err := uidOf(r.identity)
	if err != nil {
		return api.RecordingRequest{}, err
	}

	status, err := r.api.GetRecordingStatus(ctx, uid)
	if err != nil {
		return api.RecordingRequest{}, fmt.Errorf("failed to get recording status: %w", err)
	}

	return status, nil
}

// DiscardPendingRecording drops the server's unfinished recording state and
// the local session.
func (r *VoiceRepository) DiscardPendingRecording(ctx context.Context) error {
	uid, err := uidOf(r.identity)
	if err != nil {
		return err
	}

	err = r.api.RemoveRecording(ctx, api.UIDRequest{UID: uid})
	if err != nil {
		return fmt.Errorf("failed to discard recording: %w", err)
	}

	r.clearSession()
	r.log.Info("Pending recording of %s discarded", uid)

	return nil
}

// WaitReady polls the voice list until vid reports ready.
func (r *VoiceRepository) WaitReady(ctx context.Context, vid string, interval time.Duration) (core.Voice, error) {
	var ready core.Voice

	err := poll(ctx, interval, func(ctx context.Context) (bool, error) {
		voices, err := r.GetVoiceList(ctx)
		if err != nil {
			return false, err
		}

		for _, voice := range voices {
			if voice.VID == vid && voice.Ready() {
				ready = voice

				return true, nil
			}
		}

		return false, nil
	})
	if err != nil {
		return core.Voice{}, err
	}

	return ready, nil
}

// Drain blocks until background submissions have finished.
func (r *VoiceRepository) Drain() {
	r.inflight.Wait()
}

func (r *VoiceRepository) dispatch(ctx context.Context, submit func(context.Context)) {
	detached := context.WithoutCancel(ctx)

	r.inflight.Add(1)

	go func() {
		defer r.inflight.Done()

		submit(detached)
	}()
}

func (r *VoiceRepository) session() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.workingVoiceID, r.workingPath
}

func (r *VoiceRepository) clearSession() {
	r.mu.Lock()
	r.workingVoiceID = ""
	r.workingPath = ""
	r.mu.Unlock()
}
