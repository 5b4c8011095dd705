package github

// PullRequestEvent is based on:
// https://docs.github.com/en/webhooks/webhook-events-and-payloads#pull_request
type PullRequestEvent struct {
	Action       string        `json:"action"`
	Number       int           `json:"number"`
	PullRequest  PullRequest   `json:"pull_request"`
	Repository   Repository    `json:"repository"`
	Organization *Organization `json:"organization,omitempty"`
	Sender       User          `json:"sender"`

	RequestedReviewer *User `json:"requested_reviewer,omitempty"`
	RequestedTeam     *Team `json:"requested_team,omitempty"`

	Before *string `json:"before,omitempty"`
	After  *string `json:"after,omitempty"`

	// Installation `json:"installation"`
}

type Branch struct {
	Label string     `json:"label"`
	Ref   string     `json:"ref"`
	SHA   string     `json:"sha"`
	Repo  Repository `json:"repo"`
	User  User       `json:"user"`
}

type Organization struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// PullRequest is based on:
//   - https://docs.github.com/en/webhooks/webhook-events-and-payloads#pull_request
//   - https://docs.github.com/en/rest/pulls/pulls?apiVersion=2022-11-28#get-a-pull-request
type PullRequest struct {
	ID     int64 `json:"id"`
	Number int   `json:"number"`

	HTMLURL string `json:"html_url"`

	Title string `json:"title"`
	State string `json:"state"`

	User               User   `json:"user"`
	RequestedReviewers []User `json:"requested_reviewers"`
	RequestedTeams     []Team `json:"requested_teams"`

	Head Branch `json:"head"`
	Base Branch `json:"base"`

	Draft        bool `json:"draft"`
	ChangedFiles int  `json:"changed_files"`
}

type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Owner    User   `json:"owner"`
}

type Team struct {
	ID      int64  `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

type User struct {
	ID      int64  `json:"id"`
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
	Type    string `json:"type"`
}

// Ref identifies a specific commit in a GitHub repository.
type Ref struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	SHA   string `json:"sha"`
}

// Commit returns the commit at the tip of the branch,
// in the repository where the branch resides (which may be a fork).
func (b Branch) Commit() Ref {
	return Ref{Owner: b.Repo.Owner.Login, Repo: b.Repo.Name, SHA: b.SHA}
}

// PullRequestRef identifies a pull request, and the commits that it compares.
type PullRequestRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`

	Base Ref `json:"base"`
	Head Ref `json:"head"`
}

// PullRequestRef extracts the identifiers of the pull request in the event.
// The pull request resides in the event's repository, i.e. the base repository.
func (e PullRequestEvent) PullRequestRef() PullRequestRef {
	number := e.PullRequest.Number
	if number == 0 {
		number = e.Number
	}

	owner := e.Repository.Owner.Login
	if owner == "" && e.Organization != nil {
		owner = e.Organization.Login
	}

	return PullRequestRef{
		Owner:  owner,
		Repo:   e.Repository.Name,
		Number: number,
		Base:   e.PullRequest.Base.Commit(),
		Head:   e.PullRequest.Head.Commit(),
	}
}
