package appveyor

// History is the response of the project history endpoint.
type History struct {
	Project Project `json:"project"`
	Builds  []Build `json:"builds"`
}

// Project describes the AppVeyor project a history belongs to.
type Project struct {
	ProjectID      int64  `json:"projectId"`
	AccountID      int64  `json:"accountId"`
	AccountName    string `json:"accountName"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	RepositoryName string `json:"repositoryName"`
	RepositoryType string `json:"repositoryType"`
}

// Build is one AppVeyor build. Version addresses the build in the cancel endpoint.
type Build struct {
	BuildID     int64  `json:"buildId"`
	Jobs        []Job  `json:"jobs"`
	BuildNumber int64  `json:"buildNumber"`
	Version     string `json:"version"`
	Message     string `json:"message"`
	Branch      string `json:"branch"`
	CommitID    string `json:"commitId"`
	Status      string `json:"status"`
	Started     string `json:"started,omitempty"`
	Finished    string `json:"finished,omitempty"`
	Created     string `json:"created"`
	Updated     string `json:"updated,omitempty"`
}

// Job is one job of an AppVeyor build.
type Job struct {
	JobID  string `json:"jobId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// LastBuild is the response of the branch endpoint.
type LastBuild struct {
	Build Build `json:"build"`
}
