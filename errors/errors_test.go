package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestWrap(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "Dispatcher", "Dispatch", "send card")
	require.Error(t, err)
	assert.Equal(t, "Dispatcher.Dispatch: send card failed: boom", err.Error())
	assert.True(t, stderrors.Is(err, base))

	assert.NoError(t, Wrap(nil, "Dispatcher", "Dispatch", "send card"))
}

func TestWrapClassified(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Engine", "process", "evaluate rule")
			require.Error(t, err)

			var ce *ClassifiedError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Engine", ce.Component)
			assert.True(t, stderrors.Is(err, base))

			assert.NoError(t, tt.wrap(nil, "Engine", "process", "evaluate rule"))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(ErrConnectionLost))
	assert.True(t, IsTransient(ErrDeliveryTimeout))
	assert.True(t, IsTransient(ErrExternalDelivery))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(fmt.Errorf("request timeout after 5s")))
	assert.False(t, IsTransient(ErrOptionValidation))
	assert.False(t, IsTransient(WrapInvalid(stderrors.New("bad"), "c", "m", "a")))
}

func TestIsInvalid(t *testing.T) {
	assert.False(t, IsInvalid(nil))
	assert.True(t, IsInvalid(ErrUnknownCondition))
	assert.True(t, IsInvalid(ErrUnknownAction))
	assert.True(t, IsInvalid(ErrOptionValidation))
	assert.True(t, IsInvalid(fmt.Errorf("load rule: %w", ErrInvalidRule)))
	assert.False(t, IsInvalid(ErrConnectionLost))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorInvalid, Classify(ErrUnknownCondition))
	assert.Equal(t, ErrorFatal, Classify(ErrInvalidConfig))
	assert.Equal(t, ErrorTransient, Classify(ErrConnectionLost))
	// Unknown errors default to transient to allow retry
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("mystery")))
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	assert.True(t, rc.ShouldRetry(ErrConnectionLost, 0))
	assert.True(t, rc.ShouldRetry(ErrConnectionLost, 2))
	assert.False(t, rc.ShouldRetry(ErrConnectionLost, 3))
	assert.False(t, rc.ShouldRetry(ErrOptionValidation, 0))
	assert.False(t, rc.ShouldRetry(nil, 0))
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    4,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 1.5,
	}

	cfg := rc.ToRetryConfig()
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, time.Second, cfg.MaxDelay)
	assert.Equal(t, 1.5, cfg.Multiplier)
	assert.True(t, cfg.AddJitter)
}
