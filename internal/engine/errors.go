package engine

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// BackendError wraps a failed provider call. StatusCode is zero for transport
// failures. Body keeps the provider's payload so retry hints stay visible in
// Error().
type BackendError struct {
	BackendID  string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	prefix := "backend"
	if e.BackendID != "" {
		prefix = "backend " + e.BackendID
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix + ": " + e.Body
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets callers test failures against the model taxonomy sentinels.
func (e *BackendError) Is(target error) bool {
	switch target {
	case model.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case model.ErrBackendUnavailable:
		return e.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// newStatusError builds the error returned by providers for a non-200 reply.
func newStatusError(status int, body string) *BackendError {
	return &BackendError{StatusCode: status, Body: body}
}

// MaxRetryDelay is the hard ceiling on any backoff the orchestrator honours,
// whatever the backend reports.
const MaxRetryDelay = 60 * time.Second

var (
	retryDelayField   = regexp.MustCompile(`(?i)retryDelay\D*?(\d+(?:\.\d+)?)s`)
	retryInSentence   = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)`)
	retryHintPatterns = []*regexp.Regexp{retryDelayField, retryInSentence}
)

// RetryDelay extracts a server-suggested retry interval from err. Two shapes
// are recognised: a seconds field such as `"retryDelay": "38s"` and a phrase
// such as "Please retry in 12.5s". The first match wins and is rounded up to
// whole milliseconds.
func RetryDelay(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	msg := err.Error()
	for _, re := range retryHintPatterns {
		m := re.FindStringSubmatch(msg)
		if len(m) < 2 {
			continue
		}
		secs, perr := strconv.ParseFloat(m[1], 64)
		if perr != nil || secs < 0 || math.IsInf(secs, 0) {
			continue
		}
		ms := math.Ceil(secs * 1000)
		if ms > float64(math.MaxInt64/int64(time.Millisecond)) {
			continue
		}
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

// Classification is the taxonomy verdict for a failed backend call.
type Classification struct {
	Err        error
	RetryAfter time.Duration
	HasHint    bool
}

// RateLimited reports whether the failure is a rate limit.
func (c Classification) RateLimited() bool {
	return errors.Is(c.Err, model.ErrRateLimited)
}

// Classify maps err onto ErrRateLimited or ErrBackendUnavailable and attaches
// any retry hint found in it.
func Classify(err error) Classification {
	d, ok := RetryDelay(err)
	c := Classification{Err: model.ErrBackendUnavailable, RetryAfter: d, HasHint: ok}
	var be *BackendError
	if ok || (errors.As(err, &be) && be.StatusCode == http.StatusTooManyRequests) {
		c.Err = model.ErrRateLimited
	}
	return c
}
