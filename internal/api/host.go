package api

import (
	"context"
	"time"

	"locker-tab-backend/internal/scan"
)

// requestHost replays what the page's platform SDK reported in a request
// body. Identity and scan results are produced client side and forwarded.
type requestHost struct {
	user        string
	decodedText string
	errorCode   *int
}

func (h requestHost) Identity(context.Context) (string, error) {
	return h.user, nil
}

func (h requestHost) ScanCode(context.Context, time.Duration) (string, error) {
	if h.errorCode != nil {
		return "", &scan.SDKError{Code: scan.ErrorCode(*h.errorCode)}
	}
	return h.decodedText, nil
}
