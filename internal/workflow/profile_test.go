package workflow_test

import (
	"context"
	"testing"

	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAccount struct {
	userShouldFail bool
	unregisterOK   bool
	signOuts       int
}

func (m *mockAccount) GetUserInfo(_ context.Context) (core.User, error) {
	if m.userShouldFail {
		return core.User{}, core.ErrUnauthenticated
	}

	return core.User{UID: "u1", Name: "Mina", CntVoice: 3}, nil
}

func (m *mockAccount) Unregister(_ context.Context) bool {
	return m.unregisterOK
}

func (m *mockAccount) SignOut() {
	m.signOuts++
}

func TestProfileController_Load(t *testing.T) {
	t.Parallel()

	controller := workflow.NewProfileController(&mockAccount{}, &collector{}, newTestLogger(t))
	require.NoError(t, controller.Load(context.Background()))

	state := controller.Snapshot()
	require.Equal(t, workflow.PhaseSuccess, state.Phase)
	assert.Equal(t, 3, state.Data.CntVoice)

	reporter := &collector{}
	controller = workflow.NewProfileController(&mockAccount{userShouldFail: true}, reporter, newTestLogger(t))
	require.ErrorIs(t, controller.Load(context.Background()), core.ErrUnauthenticated)
	assert.Equal(t, workflow.PhaseEmpty, controller.Snapshot().Phase)
	assert.Equal(t, 1, reporter.count())
}

func TestProfileController_SignOut(t *testing.T) {
	t.Parallel()

	account := &mockAccount{}
	controller := workflow.NewProfileController(account, &collector{}, newTestLogger(t))

	controller.SignOut()
	assert.True(t, controller.LoggedOut())
	assert.Equal(t, 1, account.signOuts)
}

func TestProfileController_Unregister(t *testing.T) {
	t.Parallel()

	rejected := &mockAccount{}
	controller := workflow.NewProfileController(rejected, &collector{}, newTestLogger(t))
	assert.False(t, controller.Unregister(context.Background()))
	assert.False(t, controller.LoggedOut())
	assert.Zero(t, rejected.signOuts)

	accepted := &mockAccount{unregisterOK: true}
	controller = workflow.NewProfileController(accepted, &collector{}, newTestLogger(t))
	assert.True(t, controller.Unregister(context.Background()))
	assert.True(t, controller.LoggedOut())
	assert.Equal(t, 1, accepted.signOuts)
}
