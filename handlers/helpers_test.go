package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-system/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"team not found", services.ErrTeamNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(services.ErrSeasonNotFound), http.StatusNotFound},
		{"player already rostered", services.ErrUserAlreadyRostered, http.StatusConflict},
		{"duplicate pending offer", services.ErrOfferConflict, http.StatusConflict},
		{"email taken", services.ErrAuthEmailTaken, http.StatusConflict},
		{"season already scheduled", services.ErrSeasonHasGames, http.StatusConflict},
		{"validation", services.ErrValidationFailed, http.StatusBadRequest},
		{"unmatched payment event", services.ErrPaymentUnmatched, http.StatusBadRequest},
		{"bad reset token", services.ErrAuthTokenInvalid, http.StatusBadRequest},
		{"bad credentials", services.ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{"captain only", services.ErrCaptainActionForbidden, http.StatusForbidden},
		{"registration closed", services.ErrRegistrationClosed, http.StatusForbidden},
		{"email not confirmed", services.ErrEmailNotConfirmed, http.StatusForbidden},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestMapServiceErrorToHTTP_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	mapServiceErrorToHTTP(rec, req, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	newReq := func(body string) (*httptest.ResponseRecorder, *http.Request) {
		return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}

	t.Run("valid body", func(t *testing.T) {
		w, r := newReq(`{"name":"Rovers"}`)
		var dst payload
		require.NoError(t, readJSON(w, r, &dst))
		assert.Equal(t, "Rovers", dst.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		w, r := newReq(`{"name":"Rovers","sneaky":true}`)
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown key")
	})

	t.Run("empty body", func(t *testing.T) {
		w, r := newReq("")
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be empty")
	})

	t.Run("trailing garbage", func(t *testing.T) {
		w, r := newReq(`{"name":"Rovers"}{"name":"again"}`)
		var dst payload
		err := readJSON(w, r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single JSON value")
	})

	t.Run("malformed", func(t *testing.T) {
		w, r := newReq(`{"name":`)
		var dst payload
		assert.Error(t, readJSON(w, r, &dst))
	})
}
