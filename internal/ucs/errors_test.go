package ucs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationErrorFormat(t *testing.T) {
	err := &OperationError{
		Operation: "ldap_provider_modify",
		Category:  ErrorCategoryNotFound,
		Reason:    `LDAP provider "corp-ldap" does not exist`,
		DN:        "org-root/deviceprofile-default/ldap-ext/provider-corp-ldap",
	}

	msg := err.Error()
	assert.Contains(t, msg, "ldap_provider_modify failed")
	assert.Contains(t, msg, `LDAP provider "corp-ldap" does not exist`)
	assert.Contains(t, msg, "DN: org-root/deviceprofile-default/ldap-ext/provider-corp-ldap")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("ldap_group_map_delete", "LDAP group map does not exist", "some-dn")

	assert.Equal(t, ErrorCategoryNotFound, err.GetCategory())
	assert.True(t, IsNotFoundError(err))
	assert.False(t, err.IsRetryable())
}

func TestWrapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, WrapError("op", nil))
	})

	t.Run("plain error is wrapped", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapError("query_dn", cause)

		var opErr *OperationError
		assert.ErrorAs(t, err, &opErr)
		assert.Equal(t, "query_dn", opErr.Operation)
		assert.Equal(t, ErrorCategoryConnection, opErr.Category)
		assert.True(t, opErr.IsRetryable())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("operation error is not double wrapped", func(t *testing.T) {
		inner := NotFoundError("ldap_provider_delete", "does not exist", "")
		err := WrapError("outer_op", inner)

		var opErr *OperationError
		assert.ErrorAs(t, err, &opErr)
		// The original operation name is preserved.
		assert.Equal(t, "ldap_provider_delete", opErr.Operation)
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("missing operation is filled in", func(t *testing.T) {
		inner := &OperationError{Category: ErrorCategoryServer, Reason: "boom"}
		err := WrapError("commit", inner)

		var opErr *OperationError
		assert.ErrorAs(t, err, &opErr)
		assert.Equal(t, "commit", opErr.Operation)
	})
}

func TestGetErrorCategory(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{name: "nil", err: nil, expected: ErrorCategoryUnknown},
		{name: "timeout message", err: errors.New("request timeout"), expected: ErrorCategoryConnection},
		{name: "credentials message", err: errors.New("invalid credentials"), expected: ErrorCategoryAuthentication},
		{name: "not found message", err: errors.New("object not found"), expected: ErrorCategoryNotFound},
		{name: "opaque message", err: errors.New("kaboom"), expected: ErrorCategoryUnknown},
		{
			name:     "operation error category wins",
			err:      NewOperationError("op", ErrorCategoryValidation, "timeout mentioned but category is explicit"),
			expected: ErrorCategoryValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetErrorCategory(tc.err))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(NewConnectionError("request failed", true, nil)))
	assert.False(t, IsRetryableError(NewConnectionError("bad request", false, nil)))
	assert.True(t, IsRetryableError(fmt.Errorf("connection reset by peer")))
	assert.False(t, IsRetryableError(NotFoundError("op", "missing", "")))
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectionError("request failed", true, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "dial tcp: refused")
}
