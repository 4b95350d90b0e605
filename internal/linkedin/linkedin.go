package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "openmixer/mixer"
)

// RawProfile is the scraped content of one public profile page, as returned
// by the scraper service.
type RawProfile struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Bio        string   `json:"bio"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
}

// Text flattens the profile into the plain-text form the extraction calls
// consume.
func (p *RawProfile) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	fmt.Fprintf(&b, "Experience: %s\n", strings.Join(p.Experience, "; "))
	fmt.Fprintf(&b, "Education: %s\n", strings.Join(p.Education, "; "))
	return b.String()
}

// Fetcher retrieves the raw content of a profile URL. Login and session
// handling live entirely behind this interface.
type Fetcher interface {
	FetchProfile(ctx context.Context, profileURL string) (*RawProfile, error)
}

// Client fetches profiles through an external scraper service endpoint.
type Client struct {
	endpoint   string
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func New(endpoint, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		logger:   logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
	}
}

func (c *Client) FetchProfile(ctx context.Context, profileURL string) (*RawProfile, error) {
	if strings.TrimSpace(c.endpoint) == "" {
		return nil, fmt.Errorf("scraper endpoint is not configured")
	}

	reqURL := fmt.Sprintf("%s/profile?url=%s", c.endpoint, url.QueryEscape(profileURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("fetching profile", zap.String("url", profileURL))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %s", resp.Status)
	}

	var raw RawProfile
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	return &raw, nil
}
