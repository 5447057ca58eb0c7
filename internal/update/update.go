// Package update checks a release feed for a newer version of the module.
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

// Checker reports whether a newer release is available. An empty message
// means the running version is current.
type Checker interface {
	Check(ctx context.Context) (string, error)
}

// ErrMalformedRelease is returned when the feed response lacks a usable tag.
var ErrMalformedRelease = errors.New("release response has no valid tag_name")

// maxBody bounds the feed response read into memory.
const maxBody = 1 << 20

// GitHubChecker reads a GitHub "latest release" endpoint.
type GitHubChecker struct {
	url     string
	current string
	client  *http.Client
}

// NewGitHubChecker creates a checker comparing the release at url with the
// running version current.
func NewGitHubChecker(url, current string, client *http.Client) *GitHubChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHubChecker{
		url:     url,
		current: canonical(current),
		client:  client,
	}
}

// Check implements Checker.
func (c *GitHubChecker) Check(ctx context.Context) (string, error) {
	if !semver.IsValid(c.current) {
		return "", fmt.Errorf("running version %q is not semantic", c.current)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("release request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read release response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", ErrMalformedRelease
	}

	res := gjson.GetManyBytes(body, "tag_name", "html_url", "prerelease")
	latest := canonical(res[0].String())
	if !semver.IsValid(latest) {
		return "", ErrMalformedRelease
	}
	if res[2].Bool() || semver.Compare(latest, c.current) <= 0 {
		return "", nil
	}

	msg := fmt.Sprintf("new version %s is available (running %s)", latest, c.current)
	if link := res[1].String(); link != "" {
		msg += ": " + link
	}
	return msg, nil
}

// canonical adds the "v" prefix semver requires.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Nop is a Checker that never reports an update.
type Nop struct{}

// Check implements Checker.
func (Nop) Check(context.Context) (string, error) { return "", nil }
