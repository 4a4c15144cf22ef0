package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedErrors(t *testing.T) {
	base := NotFound("playlist not found")
	wrapped := fmt.Errorf("add video: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "playlist not found", MessageOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, "internal error", MessageOf(errors.New("boom")))
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("load user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load user", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindDependency:     http.StatusInternalServerError,
		KindUnknown:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}
