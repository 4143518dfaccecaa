package cli

import (
	"errors"
	"fmt"

	"github.com/msavelyev/stocklive/internal/client/identity"
	"github.com/msavelyev/stocklive/internal/client/store"
)

// friendlyError rewrites identity and store failures into messages a
// person at the terminal can act on. Anything unclassified passes
// through unchanged.
func friendlyError(err error) error {
	if err == nil {
		return nil
	}
	var ie *identity.Error
	if errors.As(err, &ie) {
		switch ie.Kind {
		case identity.KindEmailInUse:
			return fmt.Errorf("an account with this email already exists")
		case identity.KindInvalidEmail:
			return fmt.Errorf("that does not look like a valid email address")
		case identity.KindWeakPassword:
			return fmt.Errorf("password is too weak, use at least 6 characters")
		case identity.KindUserDisabled:
			return fmt.Errorf("this account has been disabled")
		case identity.KindUserNotFound:
			return fmt.Errorf("no account exists for this email")
		case identity.KindWrongPassword:
			return fmt.Errorf("wrong password")
		default:
			return fmt.Errorf("request failed: %v", ie.Err)
		}
	}
	var se *store.Error
	if errors.As(err, &se) {
		if se.Kind == store.KindNotFound {
			return fmt.Errorf("no such record")
		}
		return fmt.Errorf("request failed: %v", se.Err)
	}
	return err
}
