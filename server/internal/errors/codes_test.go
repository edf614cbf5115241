package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssistantError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := AdapterFailure("calendar", cause)

	assert.Equal(t, "[ADAPTER_FAILURE] calendar unavailable: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[NOT_FOUND] no such event", NotFound("no such event").Error())
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("confirm: %w", StateMiss("nothing pending"))

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct", Internal("db", nil), ErrCodeInternal, true},
		{"wrapped", wrapped, ErrCodeStateMiss, true},
		{"other code", wrapped, ErrCodeNotFound, false},
		{"plain error", errors.New("x"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidDate, GetCodeFromError(InvalidDate("31.02", nil), ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(errors.New("boom"), ErrCodeInternal))
}

func TestWithContext(t *testing.T) {
	err := Wrap(errors.New("locked"), ErrCodeInternal, "upsert event").WithContext("owner_id", int64(7))
	assert.Equal(t, int64(7), err.Context["owner_id"])
	assert.Equal(t, ErrCodeInternal, err.GetCode())
}
