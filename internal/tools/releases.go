package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIBase is the GitHub REST endpoint used for release lookups.
const DefaultAPIBase = "https://api.github.com"

// Version is the orlop release this build reports.
const Version = "0.1.0"

// UserAgent is sent with every outbound request.
var UserAgent = "orlop/" + Version

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

// Release is the subset of the GitHub release payload the installer reads.
type Release struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Version is the tag without its leading "v".
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// AssetNames lists asset names in API order.
func (r Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}

// ReleaseSource looks up the newest release of a repository ("owner/name").
type ReleaseSource interface {
	Latest(ctx context.Context, repo string) (Release, error)
}

// GitHubSource queries the GitHub releases API.
type GitHubSource struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewGitHubSource returns a source for api.github.com. The token is optional
// and only raises rate limits.
func NewGitHubSource(token string) *GitHubSource {
	return &GitHubSource{
		BaseURL: DefaultAPIBase,
		Token:   strings.TrimSpace(token),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Latest returns the release GitHub marks as latest. Repositories that only
// publish prereleases answer 404 there, in which case the newest stable entry
// of the full list is used instead.
func (g *GitHubSource) Latest(ctx context.Context, repo string) (Release, error) {
	var release Release
	status, err := g.getJSON(ctx, fmt.Sprintf("/repos/%s/releases/latest", repo), &release)
	if err != nil {
		if status == http.StatusNotFound {
			return g.LatestStable(ctx, repo)
		}
		return Release{}, err
	}
	return release, nil
}

// LatestStable scans the release list and returns the newest entry that is
// neither a draft nor a prerelease.
func (g *GitHubSource) LatestStable(ctx context.Context, repo string) (Release, error) {
	var releases []Release
	if _, err := g.getJSON(ctx, fmt.Sprintf("/repos/%s/releases?per_page=30", repo), &releases); err != nil {
		return Release{}, err
	}
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		return r, nil
	}
	return Release{}, fmt.Errorf("no stable releases found for %s", repo)
}

func (g *GitHubSource) getJSON(ctx context.Context, path string, out any) (int, error) {
	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", UserAgent)
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		hint := "set GITHUB_TOKEN to raise the limit"
		if g.Token != "" {
			hint = "try again later"
		}
		return resp.StatusCode, fmt.Errorf("%w (%s); %s", ErrRateLimited, resp.Status, hint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("query %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode release: %w", err)
	}
	return resp.StatusCode, nil
}
