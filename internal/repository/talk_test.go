package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/repository"
	"github.com/book-expert/vridge/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTalkRepo(t *testing.T, client *mockAPI, blob *mockBlob, auth *mockIdentity) *repository.TalkRepository {
	t.Helper()

	return repository.NewTalkRepository(client, blob, auth, newTestLogger(t))
}

func TestTalkRepository_CreateTts(t *testing.T) {
	t.Parallel()

	t.Run("submits normalized text under a fresh id", func(t *testing.T) {
		t.Parallel()

		client := &mockAPI{}
		repo := newTalkRepo(t, client, newMockBlob(), signedIn())
		before := time.Now().UnixMilli()

		tts, err := repo.CreateTts(context.Background(), "  안녕   하세요!!! ", "v1")
		require.NoError(t, err)

		require.Len(t, client.ttsRequests, 1)
		req := client.ttsRequests[0]
		assert.Equal(t, "안녕 하세요!", req.Text)
		assert.Equal(t, testUID, req.UID)
		assert.Equal(t, "v1", req.VID)
		assert.Len(t, req.TID, 32)
		assert.NotContains(t, req.TID, "-")
		assert.Zero(t, req.Pitch)
		assert.GreaterOrEqual(t, req.Timestamp, before)
		assert.Equal(t, req.TID, tts.ID)
	})

	t.Run("ids differ between calls", func(t *testing.T) {
		t.Parallel()

		client := &mockAPI{}
		repo := newTalkRepo(t, client, newMockBlob(), signedIn())

		_, err := repo.CreateTts(context.Background(), "a", "v1")
		require.NoError(t, err)
		_, err = repo.CreateTts(context.Background(), "b", "v1")
		require.NoError(t, err)

		assert.NotEqual(t, client.ttsRequests[0].TID, client.ttsRequests[1].TID)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		client := &mockAPI{}
		repo := newTalkRepo(t, client, newMockBlob(), signedIn())

		_, err := repo.CreateTts(context.Background(), " \n\t", "v1")
		require.ErrorIs(t, err, text.ErrTextEmpty)
		assert.Empty(t, client.ttsRequests)
	})

	t.Run("server failure", func(t *testing.T) {
		t.Parallel()

		repo := newTalkRepo(t, &mockAPI{createShouldFail: true}, newMockBlob(), signedIn())

		_, err := repo.CreateTts(context.Background(), "hi", "v1")
		require.ErrorIs(t, err, errMockAPI)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		repo := newTalkRepo(t, &mockAPI{}, newMockBlob(), &mockIdentity{})

		_, err := repo.CreateTts(context.Background(), "hi", "v1")
		require.ErrorIs(t, err, core.ErrUnauthenticated)
	})
}

func TestTalkRepository_GetTalks(t *testing.T) {
	t.Parallel()

	client := &mockAPI{talks: []core.Tts{{ID: "t1", Text: "one"}, {ID: "t2", Text: "two"}}}
	repo := newTalkRepo(t, client, newMockBlob(), signedIn())

	talks, err := repo.GetTalks(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, talks, 2)
	assert.Equal(t, "t1", talks[0].ID)
	assert.Equal(t, "t2", talks[1].ID)

	_, err = newTalkRepo(t, client, newMockBlob(), &mockIdentity{}).GetTalks(context.Background(), "v1")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestTalkRepository_GetVoice(t *testing.T) {
	t.Parallel()

	client := &mockAPI{voices: []core.Voice{{VID: "v1", Name: "mine"}}}
	repo := newTalkRepo(t, client, newMockBlob(), signedIn())

	voice, err := repo.GetVoice(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "mine", voice.Name)
}

func TestTalkRepository_GetTtsURL(t *testing.T) {
	t.Parallel()

	t.Run("resolves wav key", func(t *testing.T) {
		t.Parallel()

		blob := newMockBlob()
		repo := newTalkRepo(t, &mockAPI{}, blob, signedIn())

		url, err := repo.GetTtsURL(context.Background(), "v1", "t1")
		require.NoError(t, err)
		assert.Equal(t, "https://blob.test/"+testUID+"/v1/t1.wav", url)
		assert.Equal(t, []string{testUID + "/v1/t1.wav"}, blob.resolved)
	})

	t.Run("empty when unauthenticated", func(t *testing.T) {
		t.Parallel()

		blob := newMockBlob()
		repo := newTalkRepo(t, &mockAPI{}, blob, &mockIdentity{})

		url, err := repo.GetTtsURL(context.Background(), "v1", "t1")
		require.NoError(t, err)
		assert.Empty(t, url)
		assert.Empty(t, blob.resolved)
	})

	t.Run("placeholder id", func(t *testing.T) {
		t.Parallel()

		repo := newTalkRepo(t, &mockAPI{}, newMockBlob(), signedIn())

		_, err := repo.GetTtsURL(context.Background(), "v1", "")
		require.ErrorIs(t, err, repository.ErrPlaceholderID)
	})
}

func TestTalkRepository_WaitReady(t *testing.T) {
	t.Parallel()

	client := &mockAPI{talks: []core.Tts{{ID: "t1", Status: false}, {ID: "t2", Status: true}}}
	repo := newTalkRepo(t, client, newMockBlob(), signedIn())

	tts, err := repo.WaitReady(context.Background(), "v1", "t2", testPollInterval)
	require.NoError(t, err)
	assert.Equal(t, "t2", tts.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = repo.WaitReady(ctx, "v1", "t1", testPollInterval)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, client.listCalls, 2)
}
