package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/yuta/grassuma/internal/apperror"
)

// githubAPIBase is overridable so tests can point the provider at a local
// httptest server.
const githubAPIBase = "https://api.github.com"

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"`      // GitHub username
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow. The code-for-token exchange is server-to-server with our
// ClientSecret; the access token never reaches the browser — it goes
// straight into the session store, where the contribution sync reads it.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
	timeout time.Duration
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must exactly match the "Authorization callback URL"
// configured on the GitHub OAuth App.
//
// Scope "read:user" is all we request: the contribution calendar of the
// authenticated user is readable with it, and we never touch repos.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPIBase,
		timeout: 10 * time.Second,
	}
}

// AuthURL returns the GitHub authorization URL for the given CSRF state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an access token and fetches
// the user's profile with it. Both steps are bounded by the provider
// timeout; any failure is an apperror.ErrUpstream with no state change.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", apperror.Upstream("auth: exchanging OAuth code", err)
	}

	user, err := p.FetchProfile(ctx, oauthToken.AccessToken)
	if err != nil {
		return nil, "", err
	}

	return user, oauthToken.AccessToken, nil
}

// FetchProfile calls GitHub's /user endpoint with a bearer access token.
func (p *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*GitHubUser, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building /user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, apperror.Upstream("auth: calling GitHub /user API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("auth: calling GitHub /user API",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, apperror.Upstream("auth: decoding GitHub /user response", err)
	}

	if ghUser.ID == 0 {
		return nil, apperror.Upstream("auth: GitHub /user response",
			fmt.Errorf("invalid user (ID = 0)"))
	}

	return &ghUser, nil
}
