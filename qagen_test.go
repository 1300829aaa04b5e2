package qagen_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/qagen"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := qagen.Errorf(qagen.ENOTFOUND, "job %q not found", "test")

	assert.Equal(t, qagen.ENOTFOUND, qagen.ErrorCode(err))
	assert.Equal(t, "job \"test\" not found", qagen.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, qagen.ErrorCode(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, qagen.EINTERNAL, qagen.ErrorCode(errors.New("boom")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, qagen.ErrorMessage(nil))
}

func TestErrorMessage_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Internal error.", qagen.ErrorMessage(errors.New("boom")))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, qagen.IsTransient(qagen.Errorf(qagen.ERATELIMITED, "slow down")))
	assert.True(t, qagen.IsTransient(qagen.Errorf(qagen.EUNAVAILABLE, "overloaded")))
	assert.False(t, qagen.IsTransient(qagen.Errorf(qagen.EINVALIDRESPONSE, "bad JSON")))
	assert.False(t, qagen.IsTransient(nil))
}

func TestIsSystemic(t *testing.T) {
	t.Parallel()

	assert.True(t, qagen.IsSystemic(qagen.Errorf(qagen.EUNAUTHORIZED, "bad API key")))
	assert.False(t, qagen.IsSystemic(qagen.Errorf(qagen.ETIMEOUT, "slow page")))
	assert.False(t, qagen.IsSystemic(nil))
}
