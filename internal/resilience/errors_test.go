package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(E(KindRateLimited, errors.New("429"))))
	assert.Equal(t, KindFatal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))

	// Wrapped kinds survive the chain.
	wrapped := E(KindAuth, errors.New("bad token"))
	assert.Equal(t, KindAuth, KindOf(wrapped))
}

func TestKindOf_NetworkHeuristics(t *testing.T) {
	assert.Equal(t, KindNetwork, KindOf(errors.New("dial tcp: i/o timeout")))
	assert.Equal(t, KindNetwork, KindOf(errors.New("read: connection reset by peer")))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(E(KindRateLimited, errors.New("quota"))))
	assert.True(t, IsRecoverable(E(KindTransient, errors.New("502"))))
	assert.True(t, IsRecoverable(E(KindTimeout, errors.New("deadline"))))
	assert.False(t, IsRecoverable(E(KindAuth, errors.New("401"))))
	assert.False(t, IsRecoverable(E(KindNotFound, errors.New("404"))))
	assert.False(t, IsRecoverable(E(KindFatal, errors.New("bad request"))))
	assert.False(t, IsRecoverable(nil))
}

func TestIsJobFatal(t *testing.T) {
	assert.True(t, IsJobFatal(E(KindCandidateNotFound, errors.New("gone"))))
	assert.True(t, IsJobFatal(E(KindAccessDenied, errors.New("tenant mismatch"))))
	assert.False(t, IsJobFatal(E(KindRateLimited, errors.New("429"))))
}

func TestRetryAfterOf(t *testing.T) {
	err := &Error{Kind: KindRateLimited, Err: errors.New("429"), RetryAfter: 7 * time.Second}
	d, ok := RetryAfterOf(err)
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, d)

	_, ok = RetryAfterOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{429, KindRateLimited},
		{403, KindRateLimited},
		{401, KindAuth},
		{404, KindNotFound},
		{500, KindTransient},
		{503, KindTransient},
		{400, KindFatal},
		{200, Kind("")},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, KindForStatus(tc.code), "status %d", tc.code)
	}
}
