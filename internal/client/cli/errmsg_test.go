package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msavelyev/stocklive/internal/client/identity"
	"github.com/msavelyev/stocklive/internal/client/store"
)

func TestFriendlyErrorIdentityKinds(t *testing.T) {
	tests := []struct {
		kind identity.Kind
		want string
	}{
		{identity.KindEmailInUse, "already exists"},
		{identity.KindInvalidEmail, "valid email"},
		{identity.KindWeakPassword, "too weak"},
		{identity.KindUserDisabled, "disabled"},
		{identity.KindUserNotFound, "no account"},
		{identity.KindWrongPassword, "wrong password"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := friendlyError(identity.NewError(tt.kind, errors.New("wire detail")))
			assert.Contains(t, err.Error(), tt.want)
			assert.NotContains(t, err.Error(), "wire detail")
		})
	}
}

func TestFriendlyErrorStoreNotFound(t *testing.T) {
	err := friendlyError(store.NewError(store.KindNotFound, errors.New("404")))
	assert.Contains(t, err.Error(), "no such record")
}

func TestFriendlyErrorPassesThroughPlainErrors(t *testing.T) {
	plain := errors.New("disk full")
	assert.Equal(t, plain, friendlyError(plain))
	assert.NoError(t, friendlyError(nil))
}
