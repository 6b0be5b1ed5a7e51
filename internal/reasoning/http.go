package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/molkiya/spectra/internal/config"
	"github.com/molkiya/spectra/internal/models"
	"github.com/molkiya/spectra/pkg/logger"
)

const respondPath = "/api/oracle/respond"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPClient calls the reasoning service over HTTP/JSON.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new reasoning client
func NewHTTPClient(cfg config.ReasoningConfig, log *logger.Logger) *HTTPClient {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Transport: http.DefaultTransport,
		},
		logger: log.Named("reasoning"),
	}
}

// Respond posts the turn context and validates the answer. The call is
// bounded by the configured timeout.
func (c *HTTPClient) Respond(ctx context.Context, req models.ReasoningRequest) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return Failure{Kind: FailureMalformed, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := c.baseURL + respondPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return Failure{Kind: FailureUnreachable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	c.logger.Debug("calling reasoning service",
		logger.F("url", url),
		logger.F("phase", string(req.GameState.Phase)),
		logger.F("trend", string(req.Signals.Trend)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return Failure{Kind: FailureTimeout, Err: err}
		}
		return Failure{Kind: FailureUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return Failure{Kind: FailureTimeout, Err: err}
		}
		return Failure{Kind: FailureUnreachable, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure{Kind: FailureStatus, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	out := models.ReasoningResponse{
		Speech: models.Speech{VoiceStyle: models.VoiceNeutral},
		UI:     models.DefaultUI(),
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Failure{Kind: FailureMalformed, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if err := out.Validate(); err != nil {
		return Failure{Kind: FailureMalformed, Err: err}
	}

	c.logger.Debug("reasoning service answered",
		logger.F("voice_style", string(out.Speech.VoiceStyle)),
		logger.F("complexity", string(out.UI.Complexity)),
		logger.Int("score_delta", out.Update.ScoreDelta),
	)
	return Success{Response: out}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
