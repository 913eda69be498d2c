// Package appveyor provides a client and backend adapter for the AppVeyor REST API.
package appveyor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cancelbot/src/httpclient"
	"cancelbot/src/logger"
)

const (
	// APIBaseURL is the base URL for the AppVeyor API.
	APIBaseURL = "https://ci.appveyor.com/api"

	// DefaultHistorySize is the number of builds requested from the history endpoint.
	DefaultHistorySize = 10
)

// Client is an AppVeyor API client.
type Client struct {
	http *httpclient.Client
}

// NewClient creates an AppVeyor client. An empty baseURL selects APIBaseURL.
func NewClient(token, baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	return &Client{
		http: httpclient.New(baseURL, httpClient, log,
			httpclient.Header{Key: "Authorization", Value: "Bearer " + token},
			httpclient.Header{Key: "Accept", Value: "application/json"},
		),
	}
}

// GetHistory lists the most recent builds of a project on branch.
func (c *Client) GetHistory(ctx context.Context, account, project, branch string, records int) (*History, error) {
	if records <= 0 {
		records = DefaultHistorySize
	}
	path := fmt.Sprintf("/projects/%s/%s/history?recordsNumber=%d&branch=%s",
		account, project, records, url.QueryEscape(branch))

	var history History
	if err := c.http.GetJSON(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// GetBranchBuild fetches the tip build of branch, including its jobs.
func (c *Client) GetBranchBuild(ctx context.Context, account, project, branch string) (*LastBuild, error) {
	path := fmt.Sprintf("/projects/%s/%s/branch/%s", account, project, url.PathEscape(branch))

	var last LastBuild
	if err := c.http.GetJSON(ctx, path, &last); err != nil {
		return nil, err
	}
	return &last, nil
}

// CancelBuild cancels the build with the given version.
func (c *Client) CancelBuild(ctx context.Context, account, project, version string) error {
	path := fmt.Sprintf("/builds/%s/%s/%s", account, project, url.PathEscape(version))
	_, err := c.http.Do(ctx, http.MethodDelete, path, nil)
	return err
}
