// Package azure provides a client and backend adapter for the Azure Pipelines build API.
package azure

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"cancelbot/src/httpclient"
	"cancelbot/src/logger"
)

const (
	// APIBaseURL is the base URL for the Azure DevOps API.
	APIBaseURL = "https://dev.azure.com"

	apiVersion = "5.0"
)

var cancelBody = []byte(`{"status":"Cancelling"}`)

// Client is an Azure Pipelines API client.
type Client struct {
	http *httpclient.Client
}

// NewClient creates an Azure Pipelines client authenticating with a personal
// access token as the Basic password. An empty baseURL selects APIBaseURL.
func NewClient(token, baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	auth := base64.StdEncoding.EncodeToString([]byte(":" + token))
	return &Client{
		http: httpclient.New(baseURL, httpClient, log,
			httpclient.Header{Key: "Authorization", Value: "Basic " + auth},
			httpclient.Header{Key: "Accept", Value: "application/json"},
		),
	}
}

// ListBuilds lists the builds of a GitHub repository's branch in project.
func (c *Client) ListBuilds(ctx context.Context, org, project, repositoryID, branch string) (*List, error) {
	path := fmt.Sprintf("/%s/%s/_apis/build/builds?api-version=%s&repositoryType=GitHub&repositoryId=%s&branchName=%s",
		org, project, apiVersion, url.QueryEscape(repositoryID), url.QueryEscape("refs/heads/"+branch))

	var list List
	if err := c.http.GetJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetTimeline fetches a timeline. href is usually the absolute link reported by the build.
func (c *Client) GetTimeline(ctx context.Context, href string) (*Timeline, error) {
	var timeline Timeline
	if err := c.http.GetJSON(ctx, href, &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

// TimelinePath is the timeline location of a build that reports no link.
func TimelinePath(org, project string, id int64) string {
	return fmt.Sprintf("/%s/%s/_apis/build/builds/%d/timeline?api-version=%s", org, project, id, apiVersion)
}

// CancelBuild requests cancellation of a build.
func (c *Client) CancelBuild(ctx context.Context, org, project string, id int64) error {
	path := fmt.Sprintf("/%s/%s/_apis/build/builds/%d?api-version=%s", org, project, id, apiVersion)
	_, err := c.http.Do(ctx, http.MethodPatch, path, cancelBody,
		httpclient.Header{Key: "Content-Type", Value: "application/json"})
	return err
}
