package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/semver"
)

var (
	CurrentVersion = "v0.1.0" // Will be overwritten by ldflags during build
	GitHubAPI      = "https://api.github.com/repos/chukul/ec2provision/releases/latest"
	CheckInterval  = 24 * time.Hour
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type VersionCheck struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
}

// CheckForUpdates checks if a new version is available (non-blocking)
func CheckForUpdates(log Logger) {
	if !shouldCheck() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		latest, url, err := FetchLatestVersion(ctx)
		if err != nil {
			return // Silently fail
		}

		if IsNewer(latest, CurrentVersion) {
			log.Info("update available", "current", CurrentVersion, "latest", latest, "download", url)
		}

		saveLastCheck(latest)
	}()
}

func versionCachePath() string {
	return filepath.Join(AppDir(), "version_check.json")
}

func shouldCheck() bool {
	data, err := os.ReadFile(versionCachePath())
	if err != nil {
		return true
	}

	var check VersionCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return true
	}

	return time.Since(check.LastChecked) > CheckInterval
}

func FetchLatestVersion(ctx context.Context) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GitHubAPI, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", "", err
	}

	return release.TagName, release.HTMLURL, nil
}

// IsNewer reports whether latest is a higher semantic version than current.
// Tags without the leading "v" are accepted.
func IsNewer(latest, current string) bool {
	latest, current = canonicalVersion(latest), canonicalVersion(current)
	if !semver.IsValid(latest) || !semver.IsValid(current) {
		return false
	}
	return semver.Compare(latest, current) > 0
}

func canonicalVersion(v string) string {
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	return v
}

func saveLastCheck(version string) {
	check := VersionCheck{
		LastChecked:   time.Now(),
		LatestVersion: version,
	}
	data, _ := json.Marshal(check)
	_ = os.MkdirAll(AppDir(), 0o700)
	_ = os.WriteFile(versionCachePath(), data, 0o600)
}
