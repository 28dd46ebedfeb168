// Package linkedin publishes member or organization shares through the
// LinkedIn UGC Posts API.
package linkedin

import (
	"bytes"
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

// DefaultAPIURL is the LinkedIn REST API base
const DefaultAPIURL = "https://api.linkedin.com/v2"

const (
	restliProtocolVersion = "2.0.0"
	maxErrorBody          = 64 << 10
)

// Config holds LinkedIn credentials
type Config struct {
	HTTPClient  *http.Client
	APIURL      string
	AccessToken string
	// AuthorURN is the member or organization posting, e.g. urn:li:organization:123
	AuthorURN string
}

// Client implements publishers.Publisher for LinkedIn
type Client struct {
	http      *http.Client
	apiURL    string
	token     string
	authorURN string
}

var _ publishers.Publisher = (*Client)(nil)

// NewClient creates a LinkedIn publisher
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("linkedin access token is required")
	}
	if !strings.HasPrefix(cfg.AuthorURN, "urn:li:") {
		return nil, errors.Newf("linkedin author must be a urn:li: URN, got %q", cfg.AuthorURN)
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:      httpClient,
		apiURL:    apiURL,
		token:     cfg.AccessToken,
		authorURN: cfg.AuthorURN,
	}, nil
}

type shareCommentary struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string `json:"status"`
	OriginalURL string `json:"originalUrl"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []shareMedia    `json:"media,omitempty"`
}

type ugcPost struct {
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
}

type apiError struct {
	Message          string `json:"message"`
	Status           int    `json:"status"`
	ServiceErrorCode int    `json:"serviceErrorCode"`
}

// Publish creates a public share. Media is attached by URL as an article;
// LinkedIn renders the preview itself.
func (c *Client) Publish(ctx context.Context, content string, media *publishers.Media) (string, error) {
	sc := shareContent{
		ShareCommentary:    shareCommentary{Text: content},
		ShareMediaCategory: "NONE",
	}
	if media != nil {
		sc.ShareMediaCategory = "ARTICLE"
		sc.Media = []shareMedia{{Status: "READY", OriginalURL: media.URL}}
	}

	body, err := json.Marshal(ugcPost{
		Author:          c.authorURN,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": sc},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode linkedin post")
	}

	resp, err := c.do(ctx, http.MethodPost, c.apiURL+"/ugcPosts", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classify(resp.StatusCode, respBody)
	}

	// The share URN comes back in a header; older API versions put it in the body
	if id := resp.Header.Get("X-RestLi-Id"); id != "" {
		return id, nil
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil || created.ID == "" {
		return "", publishers.NewTransientError(publishers.PlatformLinkedIn, resp.StatusCode,
			errors.New("response did not include a post id"))
	}
	return created.ID, nil
}

// DeleteByPlatformID removes a share by its URN
func (c *Client) DeleteByPlatformID(ctx context.Context, platformPostID string) error {
	if platformPostID == "" {
		return errors.New("linkedin post id is required")
	}

	resp, err := c.do(ctx, http.MethodDelete, c.apiURL+"/ugcPosts/"+url.QueryEscape(platformPostID), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(publishers.ErrPostNotFound, "linkedin %s", platformPostID)
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classify(resp.StatusCode, respBody)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create linkedin request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, publishers.NewTimeoutError(publishers.PlatformLinkedIn, err)
		}
		return nil, publishers.NewTransientError(publishers.PlatformLinkedIn, 0, err)
	}
	return resp, nil
}

// classify maps a LinkedIn error response onto the publisher error taxonomy
func classify(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if (status == http.StatusUnprocessableEntity || status == http.StatusConflict) &&
		strings.Contains(strings.ToLower(message), "duplicate") {
		return publishers.NewDuplicateContentError(publishers.PlatformLinkedIn, message)
	}
	return publishers.NewTransientError(publishers.PlatformLinkedIn, status, errors.New(message))
}
