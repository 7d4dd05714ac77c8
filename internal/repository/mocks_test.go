package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/api"
	"github.com/book-expert/vridge/internal/core"
	"github.com/stretchr/testify/require"
)

var (
	errMockAPI  = errors.New("mock api error")
	errMockBlob = errors.New("mock blob error")
	errMockAuth = errors.New("mock auth error")
)

const testUID = "user-1"

// mockAPI is a mock implementation of the REST client.
type mockAPI struct {
	mu sync.Mutex

	loginShouldFail      bool
	unregisterShouldFail bool
	uploadShouldFail     bool
	finishShouldFail     bool
	synthShouldFail      bool
	removeShouldFail     bool
	listShouldFail       bool
	createShouldFail     bool

	voices      []core.Voice
	talks       []core.Tts
	createdTts  core.Tts
	user        core.User
	pending     api.RecordingRequest
	logins      []api.LoginRequest
	uploads     []api.RecordingRequest
	finishes    []api.VoiceRequest
	synths      []api.SynthRequest
	ttsRequests []api.TtsRequest
	removed     []string
	listCalls   int
}

func (m *mockAPI) Login(_ context.Context, req api.LoginRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logins = append(m.logins, req)
	if m.loginShouldFail {
		return errMockAPI
	}

	return nil
}

func (m *mockAPI) Unregister(_ context.Context, _ api.UIDRequest) error {
	if m.unregisterShouldFail {
		return errMockAPI
	}

	return nil
}

func (m *mockAPI) GetUserInfo(_ context.Context, uid string) (core.User, error) {
	user := m.user
	user.UID = uid

	return user, nil
}

func (m *mockAPI) GetVoice(_ context.Context, _, vid string) (core.Voice, error) {
	for _, voice := range m.voices {
		if voice.VID == vid {
			return voice, nil
		}
	}

	return core.Voice{}, &core.ServerError{StatusCode: 404, Status: "404 Not Found", Detail: "no voice"}
}

func (m *mockAPI) GetVoiceList(_ context.Context, _ string) ([]core.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.listShouldFail {
		return nil, errMockAPI
	}

	return append([]core.Voice(nil), m.voices...), nil
}

func (m *mockAPI) UploadRecording(_ context.Context, req api.RecordingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploadShouldFail {
		return errMockAPI
	}

	m.uploads = append(m.uploads, req)

	return nil
}

func (m *mockAPI) GetRecordingStatus(_ context.Context, _ string) (api.RecordingRequest, error) {
	return m.pending, nil
}

func (m *mockAPI) RemoveRecording(_ context.Context, req api.UIDRequest) error {
	if m.removeShouldFail {
		return errMockAPI
	}

	m.removed = append(m.removed, req.UID)

	return nil
}

func (m *mockAPI) FinishRecording(_ context.Context, req api.VoiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finishes = append(m.finishes, req)
	if m.finishShouldFail {
		return errMockAPI
	}

	return nil
}

func (m *mockAPI) SynthesizeVoice(_ context.Context, req api.SynthRequest) (core.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.synths = append(m.synths, req)
	if m.synthShouldFail {
		return core.Voice{}, errMockAPI
	}

	return core.Voice{VID: "synth-1", Name: req.Name, Pitch: req.Pitch}, nil
}

func (m *mockAPI) CreateTts(_ context.Context, req api.TtsRequest) (core.Tts, error) {
	m.ttsRequests = append(m.ttsRequests, req)
	if m.createShouldFail {
		return core.Tts{}, errMockAPI
	}

	if m.createdTts.ID != "" {
		return m.createdTts, nil
	}

	return core.Tts{ID: req.TID, Text: req.Text, Timestamp: req.Timestamp}, nil
}

func (m *mockAPI) GetTtsList(_ context.Context, _, _ string) ([]core.Tts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.listShouldFail {
		return nil, errMockAPI
	}

	return append([]core.Tts(nil), m.talks...), nil
}

func (m *mockAPI) finishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.finishes)
}

// mockIdentity is a mock identity provider.
type mockIdentity struct {
	signInShouldFail bool
	current          *core.Identity
	signOuts         int
}

func signedIn() *mockIdentity {
	return &mockIdentity{current: &core.Identity{UID: testUID, Email: "user@vridge.test"}}
}

func (m *mockIdentity) SignIn(idToken string) (core.Identity, error) {
	if m.signInShouldFail {
		return core.Identity{}, errMockAuth
	}

	m.current = &core.Identity{UID: testUID, Token: idToken}

	return *m.current, nil
}

func (m *mockIdentity) Current() (core.Identity, bool) {
	if m.current == nil {
		return core.Identity{}, false
	}

	return *m.current, true
}

func (m *mockIdentity) SignOut() error {
	m.signOuts++
	m.current = nil

	return nil
}

// mockTokens is a mock token store.
type mockTokens struct {
	token string
}

func (m *mockTokens) SetToken(token string) bool {
	if token == "" {
		return false
	}

	m.token = token

	return true
}

func (m *mockTokens) GetToken() string {
	return m.token
}

// mockBlob is a mock blob client.
type mockBlob struct {
	mu               sync.Mutex
	uploadShouldFail bool
	files            map[string][]byte
	resolved         []string
}

func newMockBlob() *mockBlob {
	return &mockBlob{files: make(map[string][]byte)}
}

func (m *mockBlob) UploadFile(_ context.Context, uid, vid, filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploadShouldFail {
		return errMockBlob
	}

	m.files[uid+"/"+vid+"/"+filename] = data

	return nil
}

func (m *mockBlob) GetDownloadURL(_ context.Context, objectPath string) (string, error) {
	m.resolved = append(m.resolved, objectPath)

	return "https://blob.test/" + objectPath, nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}
