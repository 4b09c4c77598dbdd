package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"locker-tab-backend/config"
	"locker-tab-backend/internal/parse"
)

// lookupRequest is posted to the hardware lookup endpoint.
type lookupRequest struct {
	Payload string `json:"payload"`
	Cabinet string `json:"cabinet,omitempty"`
	Box     *int   `json:"box,omitempty"`
}

// lookupResponse models the endpoint's reply.
type lookupResponse struct {
	Code int `json:"code"`
	Data struct {
		Box       int  `json:"box"`
		Available bool `json:"available"`
	} `json:"data"`
}

// RemoteSource asks a locker controller over HTTP which box a scanned label
// may open.
type RemoteSource struct {
	url    string
	client *resty.Client
	logger *zap.Logger
}

// NewRemoteSource builds a RemoteSource from the lookup configuration.
func NewRemoteSource(cfg config.LookupConfig, logger *zap.Logger) *RemoteSource {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.Headers)
	if cfg.HTTPProxy != "" {
		client.SetProxy(cfg.HTTPProxy)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{url: cfg.URL, client: client, logger: logger}
}

func (s *RemoteSource) Lookup(ctx context.Context, decoded string) (Availability, error) {
	req := lookupRequest{Payload: decoded}
	if p, err := parse.ParsePayload(decoded); err == nil {
		req.Cabinet = p.Cabinet
		req.Box = &p.Box
	} else {
		s.logger.Debug("payload is not a locker label, sending it raw", zap.String("payload", decoded), zap.Error(err))
	}

	var body lookupResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		Post(s.url)
	if err != nil {
		return Availability{}, fmt.Errorf("lookup request failed: %w", err)
	}
	if resp.IsError() {
		return Availability{}, fmt.Errorf("lookup returned status %d", resp.StatusCode())
	}
	if body.Code != 0 {
		return Availability{}, fmt.Errorf("lookup returned non-zero application code: %d", body.Code)
	}

	return Availability{Box: body.Data.Box, Available: body.Data.Available}, nil
}
