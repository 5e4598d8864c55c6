package imagegen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config holds image-generation client configuration.
type Config struct {
	APIKey  string
	BaseURL string // Optional, e.g. "https://api.openai.com/v1"
	Model   string // "dall-e-3"
	Size    string // "1024x1024"
	Quality string // "standard"
	Timeout time.Duration
}

// Client requests one illustration per prompt and downloads it.
type Client struct {
	api        *openai.Client
	httpClient *http.Client
	model      string
	size       string
	quality    string
}

// New creates a new image-generation client.
func New(config Config) (*Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Size == "" {
		return nil, fmt.Errorf("size is required")
	}

	httpClient := &http.Client{Timeout: config.Timeout}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}
	apiConfig.HTTPClient = httpClient

	return &Client{
		api:        openai.NewClientWithConfig(apiConfig),
		httpClient: httpClient,
		model:      config.Model,
		size:       config.Size,
		quality:    config.Quality,
	}, nil
}

// Generate asks for a single square image and returns its bytes.
// The API answers with a short-lived URL which is fetched immediately.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	slog.Debug("requesting image", "model", c.model, "size", c.size)

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("no image returned")
	}

	return c.download(ctx, resp.Data[0].URL)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download error (status %d): %s", resp.StatusCode, string(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned no data")
	}

	slog.Debug("image downloaded", "bytes", len(data))
	return data, nil
}
