package webapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the production Web API endpoint root.
const DefaultBaseURL = "https://slack.com/api/"

// Client issues typed outbound requests against the Web API. Calls are
// independent and safe for concurrent use; they hold no lock shared with
// the event stream. Results returned by list calls are never merged into
// the mirror automatically.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Web API client with the given bearer token. An empty
// baseURL selects the production endpoint.
func NewClient(token, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// apiResponse is the top-level result envelope common to every endpoint.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// call executes one endpoint method. Parameters that were never set are
// simply absent from the form body. On a non-success top-level result the
// service code is mapped onto the error taxonomy; out (when non-nil)
// receives the full decoded body on success.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method,
		strings.NewReader(params.Encode()))
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}

	var top apiResponse
	if err := json.Unmarshal(body, &top); err != nil {
		return &TransportError{Op: method, Err: err}
	}
	if !top.OK {
		c.logger.Debug("api call failed", zap.String("method", method), zap.String("code", top.Error))
		return newAPIError(top.Error)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{Op: method, Err: err}
		}
	}
	return nil
}

// setIf adds a parameter only when the value is non-empty, so unset
// optional arguments are never transmitted.
func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// setFlag adds a boolean parameter only when it is true.
func setFlag(v url.Values, key string, value bool) {
	if value {
		v.Set(key, "1")
	}
}
