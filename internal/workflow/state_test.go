package workflow_test

import (
	"testing"

	"github.com/book-expert/vridge/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Constructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, workflow.PhaseLoading, workflow.Loading[int]().Phase)
	assert.Equal(t, workflow.PhaseEmpty, workflow.Empty[int]().Phase)

	success := workflow.Success([]string{"a"})
	assert.Equal(t, workflow.PhaseSuccess, success.Phase)
	assert.Equal(t, []string{"a"}, success.Data)

	assert.Equal(t, "loading", workflow.PhaseLoading.String())
	assert.Equal(t, "success", workflow.PhaseSuccess.String())
}

func TestValidatePitch(t *testing.T) {
	t.Parallel()

	require.NoError(t, workflow.ValidatePitch(workflow.MinPitch))
	require.NoError(t, workflow.ValidatePitch(0))
	require.NoError(t, workflow.ValidatePitch(workflow.MaxPitch))
	require.ErrorIs(t, workflow.ValidatePitch(workflow.MinPitch-1), workflow.ErrPitchRange)
	require.ErrorIs(t, workflow.ValidatePitch(workflow.MaxPitch+1), workflow.ErrPitchRange)
}

func TestReporterFunc(t *testing.T) {
	t.Parallel()

	var got error

	workflow.ReporterFunc(func(err error) { got = err }).Report(errMockRepo)
	assert.Equal(t, errMockRepo, got)
}
