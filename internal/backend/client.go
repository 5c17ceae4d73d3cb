// Package backend talks to the shop's REST backend, which owns orders,
// clients, equipment and the catalogs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMalformed is returned when a successful response cannot be decoded into
// the expected shape.
var ErrMalformed = errors.New("malformed backend payload")

const (
	ordersPath     = "/api/ordenes"
	clientsPath    = "/api/clientes"
	equipmentPath  = "/api/equipos"
	faultsPath     = "/api/fallas"
	repairsPath    = "/api/reparaciones"
	sparePartsPath = "/api/repuestos"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, log)
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.With().Str("component", "backend").Logger(),
	}
}

type envelope struct {
	OK      *bool           `json:"ok"`
	ID      json.RawMessage `json:"id"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type response struct {
	status int
	body   []byte
	raw    string
	env    envelope
}

func (r *response) id() int64 {
	v := strings.Trim(strings.TrimSpace(string(r.env.ID)), `"`)
	id, _ := strconv.ParseInt(v, 10, 64)
	return id
}

func (r *response) decode(dst any) error {
	if r.body == nil {
		return fmt.Errorf("%w: expected JSON, got %q", ErrMalformed, truncate(r.raw, 80))
	}
	if err := json.Unmarshal(r.body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend unreachable")
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	res := readResponse(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, res.env, res.raw, "")
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Str("error", apiErr.Message).Msg("backend rejected request")
		return nil, apiErr
	}
	if res.env.OK != nil && !*res.env.OK {
		return nil, newAPIError(resp.StatusCode, res.env, res.raw, "request rejected")
	}
	return res, nil
}

// readResponse never fails: JSON bodies are kept for decoding, anything else
// (HTML error pages, plain text, broken JSON) is kept as raw text.
func readResponse(resp *http.Response) *response {
	res := &response{status: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return res
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "application/json") && json.Valid(data) {
		res.body = data
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			_ = json.Unmarshal(trimmed, &res.env)
		}
		return res
	}
	res.raw = string(data)
	return res
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	res, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := res.decode(&items); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
