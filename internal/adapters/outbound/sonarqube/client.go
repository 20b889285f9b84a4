// Package sonarqube retrieves issues from a SonarQube server's search API.
package sonarqube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const (
	// PageSize is the largest page the search endpoint serves.
	PageSize   = 500
	searchPath = "/api/issues/search"
	// maxErrorBody bounds how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// Client pages through /api/issues/search. It implements domain.IssueSource.
type Client struct {
	baseURL      string
	token        string
	projectKey   string
	httpClient   *http.Client
	pageSize     int
	allowPartial bool
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPageSize overrides the page size. Values outside 1..PageSize are ignored.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= PageSize {
			c.pageSize = n
		}
	}
}

// WithPartialResults makes a transport or protocol failure after at least one
// good page return the issues gathered so far instead of failing the fetch.
// Validation failures always abort.
func WithPartialResults(enabled bool) Option {
	return func(c *Client) { c.allowPartial = enabled }
}

// New builds a client from settings.
func New(settings *domain.Settings, opts ...Option) *Client {
	timeout := settings.SonarTimeout
	if timeout <= 0 {
		timeout = domain.DefaultSonarTimeout
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(settings.SonarURL, "/"),
		token:      settings.SonarToken,
		projectKey: settings.ProjectKey,
		httpClient: &http.Client{Timeout: timeout},
		pageSize:   PageSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns at most filter.MaxIssues issues in page-arrival order.
// Pagination stops when the server's total is reached, a short page arrives,
// or the cap is hit.
func (c *Client) Fetch(ctx context.Context, filter domain.RetrievalFilter) ([]*domain.Issue, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	var all []*domain.Issue
	for page := 1; len(all) < filter.MaxIssues; page++ {
		result, err := c.searchPage(ctx, c.pageParams(filter, page))
		if err != nil {
			var verr *domain.ValidationError
			if c.allowPartial && len(all) > 0 && !errors.As(err, &verr) {
				c.logger.Warn("Retrieval failed mid-pagination, keeping partial results",
					zap.Int("page", page),
					zap.Int("accumulated", len(all)),
					zap.Error(err))
				break
			}
			return nil, err
		}

		all = append(all, result.issues...)
		c.logger.Info("Retrieved issues page",
			zap.Int("page", page),
			zap.Int("received", len(result.issues)),
			zap.Int("accumulated", len(all)),
			zap.Int("total", result.total))

		if len(all) >= result.total || len(result.issues) < c.pageSize {
			break
		}
	}

	if len(all) > filter.MaxIssues {
		all = all[:filter.MaxIssues]
	}
	return all, nil
}

// Issue fetches a single issue by key. It returns (nil, nil) when the server
// does not know the key.
func (c *Client) Issue(ctx context.Context, key string) (*domain.Issue, error) {
	params := url.Values{}
	params.Set("issues", key)
	result, err := c.searchPage(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(result.issues) == 0 {
		return nil, nil
	}
	return result.issues[0], nil
}

func (c *Client) pageParams(filter domain.RetrievalFilter, page int) url.Values {
	params := url.Values{}
	params.Set("projectKeys", c.projectKey)
	params.Set("ps", strconv.Itoa(c.pageSize))
	params.Set("p", strconv.Itoa(page))
	setJoined(params, "severities", domain.SeverityStrings(filter.Severities))
	setJoined(params, "impactSeverities", domain.ImpactSeverityStrings(filter.ImpactSeverities))
	setJoined(params, "types", domain.IssueTypeStrings(filter.Types))
	setJoined(params, "statuses", domain.StatusStrings(filter.Statuses))
	if filter.Branch != "" {
		params.Set("branch", filter.Branch)
	}
	if filter.PullRequest != "" {
		params.Set("pullRequest", filter.PullRequest)
	}
	return params
}

func setJoined(params url.Values, name string, values []string) {
	if len(values) > 0 {
		params.Set(name, strings.Join(values, ","))
	}
}

type pageResult struct {
	issues []*domain.Issue
	total  int
}

func (c *Client) searchPage(ctx context.Context, params url.Values) (*pageResult, error) {
	page, _ := strconv.Atoi(params.Get("p"))
	fail := func(err error) error { return &domain.RetrievalError{Page: page, Err: err} }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fail(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fail(fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fail(fmt.Errorf("decoding response: %w", err))
	}

	issues := make([]*domain.Issue, 0, len(body.Issues))
	for _, rec := range body.Issues {
		issue, err := rec.toIssue()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		issues = append(issues, issue)
	}
	return &pageResult{issues: issues, total: body.total()}, nil
}
