// Package version provides update checking against the project's GitHub
// releases and semantic version comparison.
package version

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/marcus/plansync/internal/ghclient"
)

const (
	repoOwner = "marcus"
	repoName  = "plansync"
)

// ReleaseSource returns the newest published release.
type ReleaseSource interface {
	LatestRelease(ctx context.Context) (*ghclient.Release, error)
}

// NewSource returns a release source for the plansync repository.
func NewSource(ctx context.Context, apiURL, token string) (ReleaseSource, error) {
	c, err := ghclient.New(ctx, ghclient.Config{Owner: repoOwner, Repo: repoName, APIURL: apiURL, Token: token})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CheckResult holds the result of a version check.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	UpdateURL      string
	HasUpdate      bool
	Error          error
}

// Check fetches the latest release and compares versions.
func Check(ctx context.Context, src ReleaseSource, currentVersion string) CheckResult {
	result := CheckResult{CurrentVersion: currentVersion}

	if IsDevelopmentVersion(currentVersion) {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rel, err := src.LatestRelease(ctx)
	if err != nil {
		result.Error = err
		return result
	}

	result.LatestVersion = rel.Tag
	result.UpdateURL = rel.URL
	result.HasUpdate = isNewer(rel.Tag, currentVersion)

	return result
}

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	if strings.HasPrefix(v, "devel+") {
		return true
	}
	return false
}

// validVersionRegex matches valid semver versions (v1.2.3, v1.2.3-beta, etc.)
// Prerelease identifiers must be alphanumeric, separated by dots or hyphens.
var validVersionRegex = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*)?$`)

// UpdateCommand generates the go install command for updating.
// Returns empty string if version is invalid.
func UpdateCommand(version string) string {
	if !validVersionRegex.MatchString(version) {
		return ""
	}
	return fmt.Sprintf(
		"go install -ldflags \"-X main.Version=%s\" github.com/%s/%s@%s",
		version, repoOwner, repoName, version,
	)
}
