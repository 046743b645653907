package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	log "github.com/ecohq/eco/internal/logging"
)

const graphQLEndpoint = "https://api.github.com/graphql"

// GitHub implements Platform against a single repository.
type GitHub struct {
	client   *github.Client
	http     *http.Client
	owner    string
	repo     string
	graphURL string
	retry    RetryConfig
}

// NewGitHub creates a platform client for repo in "owner/name" form. A zero
// retry config falls back to the default backoff policy.
func NewGitHub(ctx context.Context, repo, token string, retry RetryConfig) (*GitHub, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("repo must be in owner/name form, got %q", repo)
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not set")
	}
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHub{
		client:   github.NewClient(tc),
		http:     tc,
		owner:    owner,
		repo:     name,
		graphURL: graphQLEndpoint,
		retry:    retry,
	}, nil
}

// ListOpenThreads lists open issues and open change requests.
func (g *GitHub) ListOpenThreads(ctx context.Context) ([]Thread, error) {
	var threads []Thread

	var issues []*github.Issue
	err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
		list, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo,
			&github.IssueListByRepoOptions{State: "open"})
		issues = list
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues: %w", err)
	}
	for _, is := range issues {
		if is.IsPullRequest() {
			continue
		}
		threads = append(threads, Thread{
			Kind:   KindIssue,
			Number: is.GetNumber(),
			Title:  is.GetTitle(),
			State:  is.GetState(),
		})
	}

	var prs []*github.PullRequest
	err = retryOperation(ctx, g.retry, func() (*github.Response, error) {
		list, resp, err := g.client.PullRequests.List(ctx, g.owner, g.repo,
			&github.PullRequestListOptions{State: "open"})
		prs = list
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open change requests: %w", err)
	}
	for _, pr := range prs {
		threads = append(threads, Thread{
			Kind:   KindReview,
			Number: pr.GetNumber(),
			Title:  pr.GetTitle(),
			State:  pr.GetState(),
		})
	}
	return threads, nil
}

// GetThread fetches one thread by kind and number.
func (g *GitHub) GetThread(ctx context.Context, kind Kind, number int) (Thread, error) {
	switch kind {
	case KindIssue:
		var is *github.Issue
		err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
			got, resp, err := g.client.Issues.Get(ctx, g.owner, g.repo, number)
			is = got
			return resp, err
		})
		if err != nil {
			return Thread{}, fmt.Errorf("failed to get issue #%d: %w", number, err)
		}
		return Thread{Kind: KindIssue, Number: number, Title: is.GetTitle(), State: is.GetState()}, nil
	case KindReview:
		var pr *github.PullRequest
		err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
			got, resp, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
			pr = got
			return resp, err
		})
		if err != nil {
			return Thread{}, fmt.Errorf("failed to get change request #%d: %w", number, err)
		}
		state := pr.GetState()
		if pr.GetMerged() {
			state = "merged"
		}
		return Thread{Kind: KindReview, Number: number, Title: pr.GetTitle(), State: state}, nil
	default:
		return Thread{}, fmt.Errorf("unknown thread kind %q", kind)
	}
}

// ListUnresolvedComments returns discussion comments plus, for change
// requests, comments from unresolved review threads, ordered by creation
// time.
func (g *GitHub) ListUnresolvedComments(ctx context.Context, t Thread) ([]Comment, error) {
	var comments []Comment

	var issueComments []*github.IssueComment
	err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
		list, resp, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, t.Number, nil)
		issueComments = list
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments on #%d: %w", t.Number, err)
	}
	for _, c := range issueComments {
		comments = append(comments, Comment{
			ID:           fmt.Sprintf("IC_%d", c.GetID()),
			ThreadKind:   t.Kind,
			ThreadNumber: t.Number,
			Author:       c.GetUser().GetLogin(),
			Body:         c.GetBody(),
			CreatedAt:    c.GetCreatedAt().Time,
		})
	}

	if t.Kind == KindReview {
		reviewComments, err := g.fetchReviewThreads(ctx, t.Number)
		if err != nil {
			return nil, err
		}
		comments = append(comments, reviewComments...)
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// PostComment posts one discussion comment. Issues and change requests share
// the same comment endpoint.
func (g *GitHub) PostComment(ctx context.Context, t Thread, body string) error {
	err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
		_, resp, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, t.Number,
			&github.IssueComment{Body: github.String(body)})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("failed to post comment on #%d: %w", t.Number, err)
	}
	return nil
}

// ReplyToReviewComment posts a reply inside the review thread that owns c.
// Plain discussion comments have no thread, so the reply lands as a normal
// comment on the same issue or PR.
func (g *GitHub) ReplyToReviewComment(ctx context.Context, c Comment, body string) error {
	if c.ThreadNodeID == "" {
		return g.PostComment(ctx, Thread{Kind: c.ThreadKind, Number: c.ThreadNumber}, body)
	}

	const mutation = `mutation($threadId: ID!, $body: String!) {
	  addPullRequestReviewThreadReply(input: {pullRequestReviewThreadId: $threadId, body: $body}) {
	    comment { id }
	  }
	}`

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	vars := map[string]interface{}{"threadId": c.ThreadNodeID, "body": body}
	if err := g.graphQL(ctx, mutation, vars, &result); err != nil {
		return fmt.Errorf("failed to reply in review thread: %w", err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("failed to reply in review thread: %s", result.Errors[0].Message)
	}
	return nil
}

// EditBody replaces the thread's description.
func (g *GitHub) EditBody(ctx context.Context, t Thread, body string) error {
	var err error
	switch t.Kind {
	case KindIssue:
		err = retryOperation(ctx, g.retry, func() (*github.Response, error) {
			_, resp, e := g.client.Issues.Edit(ctx, g.owner, g.repo, t.Number,
				&github.IssueRequest{Body: github.String(body)})
			return resp, e
		})
	case KindReview:
		err = retryOperation(ctx, g.retry, func() (*github.Response, error) {
			_, resp, e := g.client.PullRequests.Edit(ctx, g.owner, g.repo, t.Number,
				&github.PullRequest{Body: github.String(body)})
			return resp, e
		})
	default:
		return fmt.Errorf("unknown thread kind %q", t.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to edit body of #%d: %w", t.Number, err)
	}
	return nil
}

// CreateIssue opens a new issue and returns its number.
func (g *GitHub) CreateIssue(ctx context.Context, title, body string) (int, error) {
	var created *github.Issue
	err := retryOperation(ctx, g.retry, func() (*github.Response, error) {
		is, resp, err := g.client.Issues.Create(ctx, g.owner, g.repo,
			&github.IssueRequest{Title: github.String(title), Body: github.String(body)})
		created = is
		return resp, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create issue: %w", err)
	}
	return created.GetNumber(), nil
}

// ResolveThread resolves the review thread owning c. Comments without a
// review thread (plain discussion comments) have nothing to resolve and
// return nil; resolving an already-resolved thread is also a no-op.
func (g *GitHub) ResolveThread(ctx context.Context, c Comment) error {
	if c.ThreadNodeID == "" {
		return nil
	}
	const mutation = `mutation($threadId: ID!) {
	  resolveReviewThread(input: {threadId: $threadId}) {
	    thread { id isResolved }
	  }
	}`

	var result struct {
		Data struct {
			ResolveReviewThread struct {
				Thread struct {
					IsResolved bool `json:"isResolved"`
				} `json:"thread"`
			} `json:"resolveReviewThread"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := g.graphQL(ctx, mutation, map[string]interface{}{"threadId": c.ThreadNodeID}, &result); err != nil {
		return fmt.Errorf("failed to resolve review thread: %w", err)
	}
	for _, e := range result.Errors {
		// GitHub reports resolving a resolved thread as an error; that is
		// the idempotent success case here.
		if strings.Contains(strings.ToLower(e.Message), "already resolved") {
			log.Debugf("review thread %s already resolved", c.ThreadNodeID)
			return nil
		}
		return fmt.Errorf("failed to resolve review thread: %s", e.Message)
	}
	return nil
}

// fetchReviewThreads pulls unresolved review threads via GraphQL. The REST
// surface has no thread resolution state, so this is the one place the
// client talks to the GraphQL endpoint directly.
func (g *GitHub) fetchReviewThreads(ctx context.Context, pr int) ([]Comment, error) {
	const query = `query($owner: String!, $repo: String!, $pr: Int!) {
	  repository(owner: $owner, name: $repo) {
	    pullRequest(number: $pr) {
	      reviewThreads(first: 100) {
	        nodes {
	          id
	          isResolved
	          comments(first: 50) {
	            nodes {
	              id
	              body
	              author { login }
	              createdAt
	              path
	            }
	          }
	        }
	      }
	    }
	  }
	}`

	var result struct {
		Data struct {
			Repository struct {
				PullRequest struct {
					ReviewThreads struct {
						Nodes []struct {
							ID         string `json:"id"`
							IsResolved bool   `json:"isResolved"`
							Comments   struct {
								Nodes []struct {
									ID        string    `json:"id"`
									Body      string    `json:"body"`
									Author    struct{ Login string } `json:"author"`
									CreatedAt time.Time `json:"createdAt"`
									Path      string    `json:"path"`
								} `json:"nodes"`
							} `json:"comments"`
						} `json:"nodes"`
					} `json:"reviewThreads"`
				} `json:"pullRequest"`
			} `json:"repository"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	vars := map[string]interface{}{"owner": g.owner, "repo": g.repo, "pr": pr}
	if err := g.graphQL(ctx, query, vars, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch review threads for #%d: %w", pr, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("failed to fetch review threads for #%d: %s", pr, result.Errors[0].Message)
	}

	var comments []Comment
	for _, thread := range result.Data.Repository.PullRequest.ReviewThreads.Nodes {
		if thread.IsResolved {
			continue
		}
		for _, node := range thread.Comments.Nodes {
			comments = append(comments, Comment{
				ID:           node.ID,
				ThreadKind:   KindReview,
				ThreadNumber: pr,
				ThreadNodeID: thread.ID,
				Author:       node.Author.Login,
				Body:         node.Body,
				CreatedAt:    node.CreatedAt,
				Path:         node.Path,
			})
		}
	}
	return comments, nil
}

func (g *GitHub) graphQL(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": vars,
	})
	if err != nil {
		return err
	}

	return retryHTTP(ctx, g.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := g.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return resp, fmt.Errorf("graphql returned status %d", resp.StatusCode)
		}
		return resp, json.NewDecoder(resp.Body).Decode(out)
	})
}

// retryHTTP applies the same backoff policy to raw GraphQL calls.
func retryHTTP(ctx context.Context, cfg RetryConfig, op func() (*http.Response, error)) error {
	backoff := cfg.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		resp, err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		transient := resp == nil || resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		if !transient || attempt == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	return lastErr
}
