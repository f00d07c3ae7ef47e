package sharepoint

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
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Recorder receives one call per outbound HTTP request.
type Recorder interface {
	RecordExternalAPICall(endpoint, method string, statusCode int, duration time.Duration, err error)
}

// Client is a minimal Microsoft Graph client for sites, drives, items and workbooks.
type Client struct {
	baseURL    string
	httpClient *http.Client
	recorder   Recorder
	logger     *zap.SugaredLogger
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

func WithLogger(l *zap.SugaredLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	size        int64
	contentType string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return fmt.Errorf("graph %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.token)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.size > 0 {
		httpReq.ContentLength = req.size
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.record(req, 0, start, err)
		return fmt.Errorf("graph %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()
	c.record(req, resp.StatusCode, start, nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeGraphError(req, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("graph %s %s: decode response: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) record(req request, status int, start time.Time, err error) {
	if c.recorder != nil {
		c.recorder.RecordExternalAPICall(req.path, req.method, status, time.Since(start), err)
	}
	c.logger.Debugf("graph %s %s -> %d in %v", req.method, req.path, status, time.Since(start))
}

func decodeGraphError(req request, resp *http.Response) error {
	ge := &GraphError{StatusCode: resp.StatusCode, Method: req.method, Path: req.path}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error *GraphError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		ge.Code = envelope.Error.Code
		ge.Message = envelope.Error.Message
	} else {
		ge.Message = strings.TrimSpace(string(raw))
	}
	if ge.Message == "" {
		ge.Message = http.StatusText(resp.StatusCode)
	}
	return ge
}

// escapePath escapes every segment of a drive relative path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *Client) GetSite(ctx context.Context, token, siteURL string) (*Site, error) {
	ref, err := ParseSiteURL(siteURL)
	if err != nil {
		return nil, err
	}

	var site Site
	if err := c.do(ctx, request{method: http.MethodGet, path: ref.GraphPath(), token: token}, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

func (c *Client) ListDrives(ctx context.Context, token, siteID string) ([]Drive, error) {
	var out listResponse[Drive]
	path := "/sites/" + siteID + "/drives"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// ResolveLibrary picks the drive for a configured library name. The first rule that
// matches wins: exact name, case-insensitive name, "Documents", the first
// documentLibrary drive, then the first drive of any type.
func ResolveLibrary(drives []Drive, name string) (Drive, error) {
	if len(drives) == 0 {
		return Drive{}, ErrLibraryNotFound
	}

	name = strings.TrimSpace(name)
	if name != "" {
		for _, d := range drives {
			if d.Name == name {
				return d, nil
			}
		}
		for _, d := range drives {
			if strings.EqualFold(d.Name, name) {
				return d, nil
			}
		}
	}
	for _, d := range drives {
		if d.Name == "Documents" {
			return d, nil
		}
	}
	for _, d := range drives {
		if d.DriveType == "documentLibrary" {
			return d, nil
		}
	}
	return drives[0], nil
}

// UploadContent creates or overwrites a file at itemPath with a simple upload.
func (c *Client) UploadContent(ctx context.Context, token, driveID, itemPath string, content io.Reader, size int64, contentType string) (*DriveItem, error) {
	var item DriveItem
	path := fmt.Sprintf("/drives/%s/root:/%s:/content", driveID, escapePath(itemPath))
	if err := c.do(ctx, request{method: http.MethodPut, path: path, token: token, body: content, size: size, contentType: contentType}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateOrReplace uploads to itemPath with conflictBehavior=replace.
func (c *Client) CreateOrReplace(ctx context.Context, token, driveID, itemPath string, content io.Reader, size int64, contentType string) (*DriveItem, error) {
	var item DriveItem
	path := fmt.Sprintf("/drives/%s/root:/%s:/content?@microsoft.graph.conflictBehavior=replace", driveID, escapePath(itemPath))
	if err := c.do(ctx, request{method: http.MethodPut, path: path, token: token, body: content, size: size, contentType: contentType}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateContentByID replaces the content of an existing item, keeping its id and history.
func (c *Client) UpdateContentByID(ctx context.Context, token, driveID, itemID string, content io.Reader, size int64, contentType string) (*DriveItem, error) {
	var item DriveItem
	path := fmt.Sprintf("/drives/%s/items/%s/content", driveID, itemID)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, token: token, body: content, size: size, contentType: contentType}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) GetItemByPath(ctx context.Context, token, driveID, itemPath string) (*DriveItem, error) {
	var item DriveItem
	path := fmt.Sprintf("/drives/%s/root:/%s", driveID, escapePath(itemPath))
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func jsonBody(v any) (io.Reader, int64, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(b), int64(len(b)), nil
}
