package travis

// GetBuilds is the response of GET /repos/{owner}/{repo}/builds
type GetBuilds struct {
	Builds  []Build  `json:"builds"`
	Commits []Commit `json:"commits"`
}

// Build represents a Travis build
type Build struct {
	ID       int64   `json:"id"`
	Number   string  `json:"number"`
	State    string  `json:"state"`
	CommitID int64   `json:"commit_id"`
	JobIDs   []int64 `json:"job_ids"`
}

// Commit carries the branch a build was triggered for
type Commit struct {
	ID     int64  `json:"id"`
	Branch string `json:"branch"`
}

// GetBuild is the response of GET /builds/{id}
type GetBuild struct {
	Commit Commit `json:"commit"`
	Build  Build  `json:"build"`
	Jobs   []Job  `json:"jobs"`
}

// Job represents a job within a build
type Job struct {
	ID           int64  `json:"id"`
	BuildID      int64  `json:"build_id"`
	AllowFailure bool   `json:"allow_failure"`
	State        string `json:"state"`
}
