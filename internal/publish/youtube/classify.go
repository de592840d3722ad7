package youtube

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

var transientReasons = map[string]struct{}{
	"rateLimitExceeded":        {},
	"userRateLimitExceeded":    {},
	"quotaExceeded":            {},
	"dailyLimitExceeded":       {},
	"uploadLimitExceeded":      {},
	"backendError":             {},
	"internalError":            {},
	"processingFailure":        {},
	"serviceUnavailable":       {},
	"subscriptionRateExceeded": {},
}

var authReasons = map[string]struct{}{
	"authError":          {},
	"expired":            {},
	"invalidCredentials": {},
	"required":           {},
}

// classifyAPIError maps a YouTube Data API failure onto the publish error
// taxonomy so the upload loop knows whether a token retry is worthwhile.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return publish.Classify(err)
	}

	reasons := make([]string, 0, len(apiErr.Errors))
	for _, item := range apiErr.Errors {
		reasons = append(reasons, item.Reason)
	}
	detail := strings.Join(reasons, ",")
	if detail == "" {
		detail = apiErr.Message
	}

	for _, reason := range reasons {
		if _, ok := authReasons[reason]; ok {
			return publish.Wrap(publish.ErrAuthExpired, "api %d: %s", apiErr.Code, detail)
		}
		if _, ok := transientReasons[reason]; ok {
			return publish.Wrap(publish.ErrTransient, "api %d: %s", apiErr.Code, detail)
		}
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return publish.Wrap(publish.ErrAuthExpired, "api %d: %s", apiErr.Code, detail)
	case apiErr.Code == http.StatusRequestTimeout,
		apiErr.Code == http.StatusTooManyRequests,
		apiErr.Code >= http.StatusInternalServerError:
		return publish.Wrap(publish.ErrTransient, "api %d: %s", apiErr.Code, detail)
	default:
		return publish.Wrap(publish.ErrPermanent, "api %d: %s", apiErr.Code, detail)
	}
}
