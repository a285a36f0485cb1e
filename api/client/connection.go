// Package client is a Go client for the tagq HTTP service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jeremymatt/photo-manager/api"
)

const (
	DefaultPort      = 9877
	DefaultUserAgent = "tagq-client-golang"
)

var ErrNotFound = errors.New("not found")

type Connection struct {
	client        *http.Client
	defaultHeader http.Header
	hostURL       string
}

// NewConnection returns a connection to the service on localhost at the
// default port.
func NewConnection() *Connection {
	return NewConnectionTo("http://localhost:" + strconv.Itoa(DefaultPort))
}

func NewConnectionTo(hostURL string) *Connection {
	h := http.Header{
		"Accept":     []string{api.MediaTypeJSON},
		"User-Agent": []string{DefaultUserAgent},
	}
	return &Connection{
		client:        &http.Client{},
		defaultHeader: h,
		hostURL:       hostURL,
	}
}

// ErrorResponse is returned for a response with a non-2xx status.  Err is
// an *api.Error when the service sent a JSON error body.
type ErrorResponse struct {
	*http.Response
	Err error
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("status code %d: %v", e.StatusCode, e.Err)
}

func (e *ErrorResponse) Unwrap() error {
	return e.Err
}

// do sends a request with body encoded as JSON and decodes the response
// into out, which may be nil.
func (c *Connection) do(ctx context.Context, method, path string, body, out interface{}) (time.Duration, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.hostURL+path, r)
	if err != nil {
		return 0, err
	}
	for key, val := range c.defaultHeader {
		req.Header[key] = val
	}
	if body != nil {
		req.Header.Set("Content-Type", api.MediaTypeJSON)
	}
	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	elapsed := time.Since(start)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return elapsed, parseError(res)
	}
	if out == nil {
		return elapsed, nil
	}
	return elapsed, json.NewDecoder(res.Body).Decode(out)
}

// parseError parses an error from an http.Response with an error status
// code.
func parseError(r *http.Response) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	resErr := &ErrorResponse{Response: r}
	if r.Header.Get("Content-Type") == api.MediaTypeJSON {
		var apierr api.Error
		if err := json.Unmarshal(body, &apierr); err != nil {
			return err
		}
		resErr.Err = &apierr
	} else {
		resErr.Err = errors.New(string(body))
	}
	return resErr
}

func errIsStatus(err error, code int) bool {
	var errRes *ErrorResponse
	return errors.As(err, &errRes) && errRes.StatusCode == code
}

// Ping checks that the service is up and measures the round trip time.
func (c *Connection) Ping(ctx context.Context) (time.Duration, error) {
	return c.do(ctx, http.MethodGet, "/status", nil, nil)
}

func (c *Connection) Status(ctx context.Context) (api.StatusResponse, error) {
	var res api.StatusResponse
	_, err := c.do(ctx, http.MethodGet, "/status", nil, &res)
	return res, err
}

func (c *Connection) Version(ctx context.Context) (string, error) {
	var res api.VersionResponse
	if _, err := c.do(ctx, http.MethodGet, "/version", nil, &res); err != nil {
		return "", err
	}
	return res.Version, nil
}

func (c *Connection) Query(ctx context.Context, src, strategy string) (api.QueryResponse, error) {
	var res api.QueryResponse
	_, err := c.do(ctx, http.MethodPost, "/query", api.QueryRequest{Query: src, Strategy: strategy}, &res)
	return res, err
}

func (c *Connection) AST(ctx context.Context, src string, normalize bool) (api.ASTResponse, error) {
	var res api.ASTResponse
	_, err := c.do(ctx, http.MethodPost, "/ast", api.ASTRequest{Query: src, Normalize: normalize}, &res)
	return res, err
}

func (c *Connection) Tags(ctx context.Context) ([]api.Tag, error) {
	var res []api.Tag
	_, err := c.do(ctx, http.MethodGet, "/tags", nil, &res)
	return res, err
}

func (c *Connection) TagPost(ctx context.Context, path string) (api.Tag, error) {
	var res api.Tag
	_, err := c.do(ctx, http.MethodPost, "/tags", api.TagPostRequest{Path: path}, &res)
	return res, err
}

func (c *Connection) Fields(ctx context.Context) (api.FieldsResponse, error) {
	var res api.FieldsResponse
	_, err := c.do(ctx, http.MethodGet, "/fields", nil, &res)
	return res, err
}

func (c *Connection) ImagePost(ctx context.Context, req api.ImagePostRequest) (int64, error) {
	var res api.ImagePostResponse
	_, err := c.do(ctx, http.MethodPost, "/images", req, &res)
	return res.ID, err
}

func (c *Connection) AssignTag(ctx context.Context, id int64, path string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/images/%d/tags", id), api.TagPostRequest{Path: path}, nil)
	if errIsStatus(err, http.StatusNotFound) {
		err = fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	return err
}

func (c *Connection) UnassignTag(ctx context.Context, id int64, path string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/images/%d/tags/%s", id, url.PathEscape(path)), nil, nil)
	if errIsStatus(err, http.StatusNotFound) {
		err = fmt.Errorf("tag %q on image %d: %w", path, id, ErrNotFound)
	}
	return err
}
