package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_HappyPath(t *testing.T) {
	s := NewSession("01HGZ8VNRYXS8QKNJV5GRWPWDQ")
	assert.Equal(t, StateEmpty, s.State)

	for _, next := range []SessionState{StateUploaded, StateExtracted, StateGenerating, StateGenerated, StatePresented, StateSubmitted} {
		require.NoError(t, s.Transition(next), "transition to %s", next)
	}
	assert.True(t, s.State.IsTerminal())
}

func TestSession_GenerationFailedIsTerminal(t *testing.T) {
	s := NewSession("id")
	require.NoError(t, s.Transition(StateUploaded))
	require.NoError(t, s.Transition(StateExtracted))
	require.NoError(t, s.Transition(StateGenerating))
	require.NoError(t, s.Transition(StateGenerationFailed))

	assert.True(t, s.State.IsTerminal())
	err := s.Transition(StatePresented)
	require.Error(t, err)

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, CodeInvalidState, domainErr.Code)
	assert.Equal(t, "generation_failed", domainErr.Context["state"])
}

func TestSession_IllegalTransitions(t *testing.T) {
	tests := []struct {
		from SessionState
		to   SessionState
	}{
		{StateEmpty, StateGenerated},
		{StateGenerated, StateSubmitted},
		{StateSubmitted, StateEmpty},
		{StatePresented, StateGenerating},
	}
	for _, tt := range tests {
		assert.False(t, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
