package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		err := persistence.NewFlowstateError("Flowstate", "demo", persistence.ErrFlowstateNotFound)

		assert.True(t, persistence.IsFlowstateNotFound(err))
		assert.False(t, persistence.IsInvalidFlowstateName(err))
		assert.True(t, errors.Is(err, persistence.ErrFlowstateNotFound))
		assert.False(t, persistence.IsFlowstateNotFound(errors.New("other")))
	})

	t.Run("flowstate error contains context", func(t *testing.T) {
		err := persistence.NewFlowstateError("SaveFlowstate", "demo", persistence.ErrInvalidFlowstateName)

		assert.Contains(t, err.Error(), "SaveFlowstate")
		assert.Contains(t, err.Error(), "demo")
		assert.Contains(t, err.Error(), "invalid flowstate name")
	})
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"demo", "my-flow_2", "v1.2", "A"} {
		assert.NoError(t, persistence.ValidateName("op", name), name)
	}

	for _, name := range []string{"", "../etc", ".hidden", "a/b", "with space", string(make([]byte, 200))} {
		assert.True(t, persistence.IsInvalidFlowstateName(persistence.ValidateName("op", name)), "%q", name)
	}
}
