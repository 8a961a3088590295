package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewForbidden(), CodeAccessDenied, http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewProtectedEntity("owner", nil)), CodeProtectedEntity, http.StatusForbidden},
		{"pgx no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"sql no rows", sql.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"anything else", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domainErr := ToDomainError(tt.err)
			require.NotNil(t, domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestLifecycleErrorDetails(t *testing.T) {
	changed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	blocked := ToDomainError(NewAccountBlocked("fraud", changed))
	assert.Equal(t, http.StatusForbidden, blocked.HTTPStatus)
	assert.Equal(t, "fraud", blocked.Details["reason"])
	assert.Equal(t, changed, blocked.Details["changed_at"])

	until := changed.Add(48 * time.Hour)
	suspended := ToDomainError(NewAccountSuspended("spam", &until))
	assert.Equal(t, CodeAccountSuspended, suspended.Code)
	assert.Equal(t, until, suspended.Details["suspension_until"])

	creds := ToDomainError(NewInvalidCredentials(map[string]any{"remaining_attempts": 2}))
	assert.Equal(t, http.StatusUnauthorized, creds.HTTPStatus)
	assert.Equal(t, 2, creds.Details["remaining_attempts"])

	assert.Equal(t, http.StatusTooManyRequests, ToDomainError(NewRateLimited("slow down")).HTTPStatus)
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(cause, CodeInternal))
}
