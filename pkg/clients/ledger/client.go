package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/domain/models"
)

const (
	actionAdd    = "add"
	actionDelete = "delete"

	maxErrorBody = 256
)

// ErrMissingEndpoint is returned when the client has no ledger URL.
var ErrMissingEndpoint = errors.New("ledger endpoint is required")

// Client exposes the spreadsheet web app operations used by the tracker.
type Client interface {
	ListAll(ctx context.Context) ([]models.RawSale, error)
	Append(ctx context.Context, record models.SaleRecord) error
	Remove(ctx context.Context, id int64) error
}

// APIClient is a resty-backed implementation of Client for an Apps Script
// style endpoint: GET lists every row, POST carries an action envelope.
type APIClient struct {
	httpClient *resty.Client
	endpoint   string
	logger     *zap.Logger
}

// NewClient builds a ledger client using the provided configuration values.
func NewClient(cfg config.LedgerConfig, logger *zap.Logger) (*APIClient, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		endpoint:   endpoint,
		logger:     logger,
	}, nil
}

type addRequest struct {
	Action string `json:"action"`
	models.SaleRecord
}

type deleteRequest struct {
	Action string `json:"action"`
	ID     int64  `json:"id"`
}

// ListAll fetches every sale row. Any network, status or decoding failure is
// reported as a *models.TransportError.
func (c *APIClient) ListAll(ctx context.Context) ([]models.RawSale, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.endpoint)
	if err != nil {
		return nil, &models.TransportError{Op: "list", Err: err}
	}

	if resp.IsError() {
		return nil, &models.TransportError{
			Op:         "list",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected response: %s", truncate(resp.String())),
		}
	}

	var rows []models.RawSale
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, &models.TransportError{Op: "list", Err: fmt.Errorf("decode records: %w", err)}
	}

	c.logger.Debug("ledger rows fetched", zap.Int("count", len(rows)))
	return rows, nil
}

// Append sends a creation request. The endpoint does not acknowledge writes,
// so only failures to build or dispatch the request are returned.
func (c *APIClient) Append(ctx context.Context, record models.SaleRecord) error {
	return c.post(ctx, actionAdd, addRequest{Action: actionAdd, SaleRecord: record})
}

// Remove sends a deletion request under the same contract as Append.
func (c *APIClient) Remove(ctx context.Context, id int64) error {
	return c.post(ctx, actionDelete, deleteRequest{Action: actionDelete, ID: id})
}

func (c *APIClient) post(ctx context.Context, action string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("send %s request: %w", action, err)
	}

	// The body is never read for meaning, only drained so the connection can be reused.
	if raw := resp.RawBody(); raw != nil {
		_, _ = io.Copy(io.Discard, raw)
		_ = raw.Close()
	}

	c.logger.Debug("ledger write dispatched", zap.String("action", action), zap.Int("status", resp.StatusCode()))
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
