package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetRejectsEmptyEmail(t *testing.T) {
	// The guard must fire before any app wiring, so calling the handler
	// directly with no configured app proves it.
	for _, email := range []string{"", "   ", "\t"} {
		err := resetCmd.RunE(resetCmd, []string{email})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email must not be empty")
	}
}
