package youtube

import (
	"errors"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

func apiError(code int, reason string) *googleapi.Error {
	err := &googleapi.Error{Code: code, Message: "test failure"}
	if reason != "" {
		err.Errors = []googleapi.ErrorItem{{Reason: reason}}
	}
	return err
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"401 is auth", apiError(401, ""), publish.ErrAuthExpired},
		{"authError reason", apiError(403, "authError"), publish.ErrAuthExpired},
		{"quota exceeded is transient", apiError(403, "quotaExceeded"), publish.ErrTransient},
		{"rate limit is transient", apiError(403, "rateLimitExceeded"), publish.ErrTransient},
		{"429 is transient", apiError(429, ""), publish.ErrTransient},
		{"500 is transient", apiError(500, "backendError"), publish.ErrTransient},
		{"503 is transient", apiError(503, ""), publish.ErrTransient},
		{"400 is permanent", apiError(400, "invalidTitle"), publish.ErrPermanent},
		{"403 forbidden is permanent", apiError(403, "forbidden"), publish.ErrPermanent},
		{"404 is permanent", apiError(404, ""), publish.ErrPermanent},
		{"non-api error goes through generic classify", errors.New("boom"), publish.ErrPermanent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyAPIError(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("classifyAPIError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if classifyAPIError(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}
