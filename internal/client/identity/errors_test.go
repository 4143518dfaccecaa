package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := NewError(KindWrongPassword, errors.New("denied"))

	assert.Equal(t, Kind(-1), KindOf(nil))
	assert.Equal(t, KindWrongPassword, KindOf(base))
	assert.Equal(t, KindWrongPassword, KindOf(fmt.Errorf("login: %w", base)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(KindEmailInUse, cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "email in use")
}
