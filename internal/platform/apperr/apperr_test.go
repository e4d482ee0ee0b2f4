package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Validation, KindOf(New(Validation, "bad input")))
	assert.Equal(t, Conflict, KindOf(New(Conflict, "version mismatch")))

	// 非业务错误一律按 Internal 处理
	assert.Equal(t, Internal, KindOf(errors.New("plain error")))
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(NotFound, "account 7 not found")
	wrapped := fmt.Errorf("load balance: %w", inner)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Validation))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Internal, cause, "flush snapshot")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "flush snapshot")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(Validation, "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(New(PreconditionFailed, "x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(New(NotFound, "x")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(New(Conflict, "x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
