package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfenderov/draftpress/pkg/models"
)

// Config holds WordPress REST API configuration.
type Config struct {
	SiteURL     string // "https://example.com"
	Username    string
	AppPassword string // Application password, not the login password
	Timeout     time.Duration
}

// APIError is returned when WordPress answers with an unexpected status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// Client wraps the WordPress media and posts endpoints.
type Client struct {
	httpClient  *http.Client
	mediaURL    string
	postsURL    string
	username    string
	appPassword string
}

// New creates a new WordPress client.
func New(config Config) (*Client, error) {
	if config.SiteURL == "" {
		return nil, fmt.Errorf("site URL is required")
	}

	site := strings.TrimSuffix(config.SiteURL, "/")
	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		mediaURL:    site + "/wp-json/wp/v2/media",
		postsURL:    site + "/wp-json/wp/v2/posts",
		username:    config.Username,
		appPassword: config.AppPassword,
	}, nil
}

// createdResponse is the subset of the media and post objects we read.
type createdResponse struct {
	ID int `json:"id"`
}

// UploadMedia stores raw image bytes in the media library and returns the media ID.
// The content type is always image/jpeg.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mediaURL, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Disposition", "attachment; filename="+filename)
	req.Header.Set("Content-Type", "image/jpeg")

	respBody, err := c.doCreate(req, "media upload")
	if err != nil {
		return 0, err
	}

	var created createdResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return 0, fmt.Errorf("failed to unmarshal media upload response: %w", err)
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("media upload response has no id: %s", string(respBody))
	}
	id := created.ID

	slog.Debug("media uploaded", "filename", filename, "media_id", id)
	return id, nil
}

// CreatePost creates a post and returns its ID. Any 201 is a success; the ID
// is 0 when the response body does not carry one.
func (c *Client) CreatePost(ctx context.Context, post models.DraftPost) (int, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postsURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.doCreate(req, "post publish")
	if err != nil {
		return 0, err
	}

	var created createdResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		slog.Warn("post created but response has no id", "title", post.Title, "error", err)
	}
	id := created.ID

	slog.Debug("post created", "title", post.Title, "post_id", id, "status", post.Status)
	return id, nil
}

// doCreate sends an authenticated request, expects exactly 201 Created and
// returns the response body.
func (c *Client) doCreate(req *http.Request, op string) ([]byte, error) {
	req.SetBasicAuth(c.username, c.appPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
