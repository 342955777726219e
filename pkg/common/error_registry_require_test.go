package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorRegistry_MapWithKnownCodes(t *testing.T) {
	registry := NewErrorRegistry()

	cases := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamFatal, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		mapped := registry.MapWithCode(errors.New("boom"), tc.code)
		require.Equal(t, tc.code, mapped.Code)
		require.Equal(t, tc.status, mapped.StatusCode)
	}
}

func TestErrorRegistry_PatternFallbackClassification(t *testing.T) {
	registry := NewErrorRegistry()

	mapped := registry.Map(errors.New("dial tcp 10.0.0.1:443: connection refused"))
	require.Equal(t, ErrCodeUpstreamFatal, mapped.Code)
	require.Equal(t, http.StatusBadGateway, mapped.StatusCode)

	mapped = registry.Map(errors.New("something completely unexpected"))
	require.Equal(t, ErrCodeInternal, mapped.Code)
}

func TestErrorRegistry_InternalDetailNeverSerialized(t *testing.T) {
	registry := NewErrorRegistry()

	internal := errors.New("bbolt: page 12 corrupt at 0xdeadbeef")
	mapped := registry.Map(internal)
	require.NotContains(t, mapped.UserMessage, "bbolt")
	require.NotContains(t, mapped.Message, "bbolt")
	require.ErrorIs(t, mapped, internal)
}

func TestErrorRegistry_MapPassesThroughStandardizedError(t *testing.T) {
	registry := NewErrorRegistry()

	already := registry.MapWithCode(errors.New("x"), ErrCodeNotFound)
	require.Same(t, already, registry.Map(already))
}

func TestErrorRegistry_MapNilIsNil(t *testing.T) {
	registry := NewErrorRegistry()
	require.Nil(t, registry.Map(nil))
	require.Nil(t, registry.MapWithCode(nil, ErrCodeInternal))
}
