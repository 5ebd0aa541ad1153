// Package github fetches a user's contribution calendar.
//
// The GraphQL API is treated as an opaque upstream: we send one fixed
// query for the requested day's window and dig the per-day count out of
// the calendar it returns. Anything unexpected — transport error, non-200,
// malformed payload, the requested day missing from the response — is an
// apperror.ErrUpstream, and the caller is guaranteed no state changed.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"context"

	"github.com/yuta/grassuma/internal/apperror"
)

const defaultBaseURL = "https://api.github.com"

// contributionQuery asks for the contribution calendar of one user over a
// from/to window. We only ever pass a single-day window, but the calendar
// always comes back week-granular, so the response is walked day by day.
const contributionQuery = `
query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// Client calls the GitHub GraphQL API with a user's OAuth access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client with a 10s request timeout. An outbound call
// that hangs must never hang the sync caller with it.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local
// httptest server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchDaily returns the contribution count for login on the given UTC
// calendar day.
func (c *Client) FetchDaily(ctx context.Context, accessToken, login string, day time.Time) (int, error) {
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)

	body, err := json.Marshal(graphqlRequest{
		Query: contributionQuery,
		Variables: map[string]any{
			"login": login,
			"from":  from.Format(time.RFC3339),
			"to":    to.Format(time.RFC3339),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("github: encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("github: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperror.Upstream("github: fetching contributions", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperror.Upstream("github: fetching contributions",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, apperror.Upstream("github: decoding contribution calendar", err)
	}
	if len(parsed.Errors) > 0 {
		return 0, apperror.Upstream("github: fetching contributions",
			fmt.Errorf("graphql: %s", parsed.Errors[0].Message))
	}
	if parsed.Data.User == nil {
		return 0, apperror.Upstream("github: fetching contributions",
			fmt.Errorf("user %q missing from response", login))
	}

	want := from.Format("2006-01-02")
	for _, week := range parsed.Data.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, d := range week.ContributionDays {
			if d.Date == want {
				return d.ContributionCount, nil
			}
		}
	}

	return 0, apperror.Upstream("github: fetching contributions",
		fmt.Errorf("day %s missing from calendar", want))
}
