// Package resilience provides kind-tagged errors, retry with backoff,
// and per-provider circuit breakers for external service calls.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// Kind classifies an error for retry and propagation decisions.
type Kind string

const (
	// KindRateLimited marks 429/403 quota responses. Recoverable; retried
	// honouring any Retry-After the provider sent.
	KindRateLimited Kind = "rate_limited"
	// KindNetwork marks connection-level failures. Recoverable.
	KindNetwork Kind = "network"
	// KindAuth marks invalid or rejected credentials. Not retried.
	KindAuth Kind = "auth"
	// KindNotFound marks a missing remote resource. Not retried.
	KindNotFound Kind = "not_found"
	// KindTransient marks 5xx and other short-lived provider failures.
	KindTransient Kind = "transient"
	// KindFatal marks errors that must terminate the operation.
	KindFatal Kind = "fatal"

	// KindCandidateNotFound is fatal per job: the candidate row is gone.
	KindCandidateNotFound Kind = "candidate_not_found"
	// KindAccessDenied is fatal per job: tenant mismatch or revoked access.
	KindAccessDenied Kind = "access_denied"
	// KindParse marks a malformed provider result; the result is dropped
	// and sampled into the trace, never failing the run.
	KindParse Kind = "parse_error"
	// KindTimeout propagates as an early-stop reason.
	KindTimeout Kind = "timeout"
	// KindPersistConflict is logged per identity and does not fail the job.
	KindPersistConflict Kind = "persist_conflict"
)

// Error is a kind-tagged error carrying optional provider context.
type Error struct {
	Kind       Kind
	Err        error
	Provider   string
	StatusCode int
	// RetryAfter is the provider-requested wait parsed from a Retry-After
	// header; zero when absent.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind.
func E(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in the chain. Raw network
// errors classify as KindNetwork; everything else is KindFatal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if isNetworkError(err) {
		return KindNetwork
	}
	return KindFatal
}

// IsRecoverable reports whether the error is worth retrying.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetwork, KindTransient, KindTimeout:
		return true
	default:
		return false
	}
}

// IsJobFatal reports whether the error must terminate a queued job
// without further attempts.
func IsJobFatal(err error) bool {
	switch KindOf(err) {
	case KindCandidateNotFound, KindAccessDenied, KindAuth, KindFatal:
		return true
	default:
		return false
	}
}

// RetryAfterOf returns the provider-requested wait, if any error in the
// chain carries one.
func RetryAfterOf(err error) (time.Duration, bool) {
	var re *Error
	if errors.As(err, &re) && re.RetryAfter > 0 {
		return re.RetryAfter, true
	}
	return 0, false
}

// KindForStatus maps an HTTP status code to an error kind. Statuses that
// do not indicate failure map to the empty kind.
func KindForStatus(code int) Kind {
	switch {
	case code == 429 || code == 403:
		return KindRateLimited
	case code == 401:
		return KindAuth
	case code == 404:
		return KindNotFound
	case code >= 500:
		return KindTransient
	case code >= 400:
		return KindFatal
	default:
		return ""
	}
}

// isNetworkError detects connection-level failures that are safe to retry.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
