package azure

// List is the response of the build list endpoint.
type List struct {
	Count int     `json:"count"`
	Value []Build `json:"value"`
}

// Build is one Azure Pipelines build. Result is empty until the build completes.
type Build struct {
	ID           int64  `json:"id"`
	BuildNumber  string `json:"buildNumber"`
	Status       string `json:"status"`
	Result       string `json:"result,omitempty"`
	SourceBranch string `json:"sourceBranch"`
	Links        Links  `json:"_links"`
}

// Links holds the hypermedia links of a build.
type Links struct {
	Timeline Link `json:"timeline"`
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Timeline is the record tree of a build: stages, jobs and tasks.
type Timeline struct {
	Records []Record `json:"records"`
}

// Record is one timeline entry.
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	State  string `json:"state"`
	Result string `json:"result,omitempty"`
}
