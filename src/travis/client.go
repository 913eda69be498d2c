// Package travis provides a client and backend adapter for the Travis CI v2 API.
package travis

import (
	"context"
	"fmt"
	"net/http"

	"cancelbot/src/httpclient"
	"cancelbot/src/logger"
)

const (
	// APIBaseURL is the base URL for the Travis API.
	APIBaseURL = "https://api.travis-ci.com"

	acceptHeader = "application/vnd.travis-ci.2+json"
)

// Client is a Travis API client.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a Travis client. An empty baseURL selects APIBaseURL.
func NewClient(token, baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	return &Client{
		http: httpclient.New(baseURL, httpClient, log,
			httpclient.Header{Key: "Authorization", Value: "token " + token},
			httpclient.Header{Key: "Accept", Value: acceptHeader},
		),
	}
}

// GetBuilds lists the recent builds of a repository together with their commits.
func (c *Client) GetBuilds(ctx context.Context, owner, repo string) (*GetBuilds, error) {
	var list GetBuilds
	if err := c.http.GetJSON(ctx, fmt.Sprintf("/repos/%s/%s/builds", owner, repo), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetBuild fetches a single build with its jobs.
func (c *Client) GetBuild(ctx context.Context, id int64) (*GetBuild, error) {
	var build GetBuild
	if err := c.http.GetJSON(ctx, fmt.Sprintf("/builds/%d", id), &build); err != nil {
		return nil, err
	}
	return &build, nil
}

// CancelBuild cancels a build.
func (c *Client) CancelBuild(ctx context.Context, id int64) error {
	_, err := c.http.Do(ctx, http.MethodPost, fmt.Sprintf("/builds/%d/cancel", id), nil)
	return err
}
