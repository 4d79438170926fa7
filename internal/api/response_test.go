package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", domain.ErrEmptyMessage, http.StatusBadRequest},
		{"not found", domain.ErrSessionNotFound, http.StatusNotFound},
		{"unreadable document", domain.ErrUnreadableDocument, http.StatusBadRequest},
		{"provider unavailable", domain.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{"provider config", domain.ErrProviderConfig, http.StatusInternalServerError},
		{"provider error", domain.ErrProviderFailed, http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("context: %w", domain.ErrSessionNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("writes domain error message and status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, domain.ErrSessionNotFound)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "session not found")
	})

	t.Run("hides details of internal failures", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		assert.Contains(t, rec.Body.String(), "internal server error")
	})
}
