package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const traceIDHeader = "X-Trace-ID"

// APIError is a non-2xx answer of the control API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("syncd answered %d", e.StatusCode)
	}
	return fmt.Sprintf("syncd answered %d: %s", e.StatusCode, e.Message)
}

// ErrMigrationRunning is returned by [Client.Migrate] when a migration is
// already in progress.
var ErrMigrationRunning = errors.New("a migration is already running")

// Client talks to the control API of syncd. Every request carries a fresh
// X-Trace-ID so a CLI call can be found in the daemon log.
type Client struct {
	http *utils.HTTPClient
}

// NewClient returns a client for the daemon at baseURL.
func NewClient(http *utils.HTTPClient) *Client {
	return &Client{http: http}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader(traceIDHeader, uuid.NewString())
}

// Status implements [tui.StatusSource].
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var status models.Status
	if err := c.do(c.request(ctx), http.MethodGet, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Sync runs a full pass and waits for its report. When the daemon aborted
// the pass the partial report is returned next to the error.
func (c *Client) Sync(ctx context.Context) (*models.SyncReport, error) {
	resp, err := c.request(ctx).Post("/api/sync")
	if err != nil {
		return nil, fmt.Errorf("POST /api/sync: %w", err)
	}

	var report models.SyncReport
	if resp.IsSuccess() {
		if err := json.Unmarshal(resp.Body(), &report); err != nil {
			return nil, fmt.Errorf("decode sync report: %w", err)
		}
		return &report, nil
	}

	apiErr := apiError(resp)
	if apiErr.Message == "" && json.Unmarshal(resp.Body(), &report) == nil && report.PassID != "" {
		apiErr.Message = "pass aborted"
		return &report, apiErr
	}
	return nil, apiErr
}

// Migrate starts the bulk migration in the daemon.
func (c *Client) Migrate(ctx context.Context) error {
	err := c.do(c.request(ctx), http.MethodPost, "/api/migrate", nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return ErrMigrationRunning
	}
	return err
}

// Login hands token to the daemon. An empty token logs out.
func (c *Client) Login(ctx context.Context, token string) (*models.SessionStatus, error) {
	var session models.SessionStatus
	req := c.request(ctx).SetBody(models.SessionRequest{Token: token})
	if err := c.do(req, http.MethodPut, "/api/session", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// State asks the daemon how the local copy of a record compares with the
// remote one.
func (c *Client) State(ctx context.Context, collection, id string) (*models.RecordStateResponse, error) {
	var state models.RecordStateResponse
	req := c.request(ctx).SetPathParams(map[string]string{"collection": collection, "id": id})
	if err := c.do(req, http.MethodGet, "/api/records/{collection}/{id}/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Version returns the version of the daemon.
func (c *Client) Version(ctx context.Context) (*models.VersionResponse, error) {
	var version models.VersionResponse
	if err := c.do(c.request(ctx), http.MethodGet, "/api/version", &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsSuccess() {
		return apiError(resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func apiError(resp *resty.Response) *APIError {
	var body utils.ErrorResponse
	_ = json.Unmarshal(resp.Body(), &body)
	return &APIError{StatusCode: resp.StatusCode(), Message: body.Error}
}
