package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/models"
)

const (
	// requestTimeout bounds each push, including reading the response.
	requestTimeout = 10 * time.Second

	// AgentTokenHeader carries the shared agent credential.
	AgentTokenHeader = "X-Agent-Token"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 4096
)

// HTTPSender pushes snapshots to the collector's per-machine endpoint.
type HTTPSender struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
	logger    *zap.Logger
}

// NewHTTP creates an HTTPSender for the collector at baseURL.
func NewHTTP(baseURL, token, version string, logger *zap.Logger) *HTTPSender {
	return &HTTPSender{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: "pcstatus-agent/" + version,
		logger:    logger.Named("sender"),
	}
}

// Endpoint returns the push URL for a machine.
func (s *HTTPSender) Endpoint(machineID string) string {
	return fmt.Sprintf("%s/machines/%s", s.baseURL, url.PathEscape(machineID))
}

// Publish POSTs snap as JSON. A 401 yields ErrUnauthorized, any other
// non-2xx a *StatusError, and network failures the transport error.
func (s *HTTPSender) Publish(ctx context.Context, machineID string, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint(machineID), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(AgentTokenHeader, s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		s.logger.Debug("Snapshot accepted",
			zap.String("machine_id", machineID),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.Body),
	}
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from a
// response body, returning "" when neither is present.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
