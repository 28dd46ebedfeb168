// Package instagram publishes to an Instagram professional account through
// the Graph API content publishing flow: create a media container, wait for
// video containers to finish processing, then publish the container.
package instagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Socialbot/internal/core/publishers"

	"github.com/cockroachdb/errors"
)

// DefaultAPIURL is the Graph API base
const DefaultAPIURL = "https://graph.facebook.com/v19.0"

const (
	defaultPollInterval = 3 * time.Second
	defaultMaxPolls     = 20
	maxResponseBody     = 64 << 10
)

// Config holds Instagram Graph API credentials
type Config struct {
	HTTPClient  *http.Client
	APIURL      string
	AccessToken string
	AccountID   string
	// PollInterval and MaxPolls bound the wait for video processing
	PollInterval time.Duration
	MaxPolls     int
}

// Client implements publishers.Publisher for Instagram
type Client struct {
	http         *http.Client
	apiURL       string
	token        string
	accountID    string
	pollInterval time.Duration
	maxPolls     int
}

var _ publishers.Publisher = (*Client)(nil)

// NewClient creates an Instagram publisher
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("instagram access token is required")
	}
	if cfg.AccountID == "" {
		return nil, errors.New("instagram account id is required")
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		http:         httpClient,
		apiURL:       apiURL,
		token:        cfg.AccessToken,
		accountID:    cfg.AccountID,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.maxPolls <= 0 {
		c.maxPolls = defaultMaxPolls
	}
	return c, nil
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

type idResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

// Publish posts an image or video with content as its caption.
// Instagram has no text-only posts, so media is required.
func (c *Client) Publish(ctx context.Context, content string, media *publishers.Media) (string, error) {
	if media == nil {
		return "", errors.Wrap(publishers.ErrMediaRequired, "instagram")
	}

	// 1. Create the media container
	form := url.Values{}
	form.Set("caption", content)
	switch media.Type {
	case publishers.MediaVideo:
		form.Set("media_type", "REELS")
		form.Set("video_url", media.URL)
	default:
		form.Set("image_url", media.URL)
	}

	var container idResponse
	if err := c.post(ctx, c.apiURL+"/"+c.accountID+"/media", form, &container); err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", publishers.NewTransientError(publishers.PlatformInstagram, 0, errors.New("container id missing from response"))
	}

	// 2. Videos are processed asynchronously
	if media.Type == publishers.MediaVideo {
		if err := c.waitForContainer(ctx, container.ID); err != nil {
			return "", err
		}
	}

	// 3. Publish the container
	publishForm := url.Values{}
	publishForm.Set("creation_id", container.ID)

	var published idResponse
	if err := c.post(ctx, c.apiURL+"/"+c.accountID+"/media_publish", publishForm, &published); err != nil {
		return "", err
	}
	if published.ID == "" {
		return "", publishers.NewTransientError(publishers.PlatformInstagram, 0, errors.New("media id missing from response"))
	}
	return published.ID, nil
}

// DeleteByPlatformID always fails: the Graph API cannot delete published media
func (c *Client) DeleteByPlatformID(ctx context.Context, platformPostID string) error {
	return errors.Wrapf(publishers.ErrDeleteUnsupported, "instagram media %s", platformPostID)
}

func (c *Client) waitForContainer(ctx context.Context, containerID string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for i := 0; i < c.maxPolls; i++ {
		query := url.Values{}
		query.Set("fields", "status_code,status")

		var status statusResponse
		if err := c.get(ctx, c.apiURL+"/"+containerID+"?"+query.Encode(), &status); err != nil {
			return err
		}

		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return publishers.NewTransientError(publishers.PlatformInstagram, 0,
				errors.Newf("container %s processing %s: %s", containerID, strings.ToLower(status.StatusCode), status.Status))
		}

		select {
		case <-ctx.Done():
			return publishers.NewTimeoutError(publishers.PlatformInstagram, ctx.Err())
		case <-ticker.C:
		}
	}
	return publishers.NewTransientError(publishers.PlatformInstagram, 0,
		errors.Newf("container %s still processing after %d checks", containerID, c.maxPolls))
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create instagram request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create instagram request")
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return publishers.NewTimeoutError(publishers.PlatformInstagram, err)
		}
		return publishers.NewTransientError(publishers.PlatformInstagram, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return publishers.NewTransientError(publishers.PlatformInstagram, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return publishers.NewTransientError(publishers.PlatformInstagram, resp.StatusCode,
			errors.Wrap(err, "failed to decode response"))
	}
	return nil
}

// classify maps a Graph API error onto the publisher error taxonomy
func classify(status int, body []byte) error {
	var gErr graphError
	_ = json.Unmarshal(body, &gErr)

	message := gErr.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if strings.Contains(strings.ToLower(message), "duplicate") {
		return publishers.NewDuplicateContentError(publishers.PlatformInstagram, message)
	}
	return publishers.NewTransientError(publishers.PlatformInstagram, status, errors.New(message))
}
