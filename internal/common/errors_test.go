package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	err := NewUserError("weekly update for Oct 19th failed", ErrFooterMissing)

	assert.Equal(t, "weekly update for Oct 19th failed: footer row missing or empty", err.Error())
	assert.ErrorIs(t, err, ErrFooterMissing, "the cause stays reachable for errors.Is")

	var uerr *UserError
	assert.ErrorAs(t, err, &uerr)
	assert.Equal(t, "weekly update for Oct 19th failed", uerr.UserMessage)
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := NewUserError("nothing to do", nil)

	assert.Equal(t, "nothing to do", err.Error())
	assert.NoError(t, errors.Unwrap(err))
}
