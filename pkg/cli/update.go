package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Repo is the GitHub repository releases are published to.
const Repo = "Fepozopo/darkroom"

// releasesURL is a format string taking the owner/name repo.
var releasesURL = "https://api.github.com/repos/%s/releases"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// pickAsset prefers an asset built for this OS and architecture, then any
// platform-looking asset, then the first one.
func pickAsset(r githubRelease) string {
	best, score := "", -1
	for _, a := range r.Assets {
		name := strings.ToLower(a.Name)
		s := 0
		if strings.Contains(name, runtime.GOOS) {
			s += 2
		}
		if strings.Contains(name, runtime.GOARCH) {
			s++
		}
		if s > score {
			best, score = a.BrowserDownloadURL, s
		}
	}
	return best
}

// detectLatestFallback queries the GitHub releases API and returns the
// highest semver release that is neither a draft nor a prerelease. Tag names
// only need to contain a version somewhere ("darkroom-v1.2.3" works). It
// returns (nil, false, nil) when nothing matches.
func detectLatestFallback(ctx context.Context, repo string) (*selfupdate.Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(releasesURL, repo), nil)
	if err != nil {
		return nil, false, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	var candidates []*selfupdate.Release
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			if match = semverRe.FindString(r.Name); match == "" {
				continue
			}
		}
		v, err := semver.ParseTolerant(match)
		if err != nil {
			continue
		}
		candidates = append(candidates, &selfupdate.Release{Version: v, AssetURL: pickAsset(r)})
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version.GT(candidates[j].Version)
	})
	return candidates[0], true, nil
}

// CheckForUpdates compares Version with the latest release and, after
// confirmation, replaces the running binary and restarts it.
func CheckForUpdates(ctx context.Context, p *Prompter, out io.Writer) error {
	fmt.Fprintf(out, "Current version: %s\n", Version)
	latest, found, err := detectLatestFallback(ctx, Repo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found {
		fmt.Fprintf(out, "No releases found for %s.\n", Repo)
		return nil
	}
	fmt.Fprintf(out, "Latest version: %s\n", latest.Version)

	current, perr := semver.ParseTolerant(Version)
	if perr != nil {
		fmt.Fprintf(out, "warning: could not parse current version %q: %v\n", Version, perr)
	}
	if perr == nil && latest.Version.LTE(current) {
		fmt.Fprintf(out, "You are already running the latest version: %s.\n", current)
		return nil
	}
	if latest.AssetURL == "" {
		fmt.Fprintf(out, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Fprintln(out, "Please visit the project releases page to download the new version.")
		return nil
	}

	ok, err := p.Confirm(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if err != nil {
		return fmt.Errorf("failed reading input: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, "Update cancelled.")
		return nil
	}

	fmt.Fprintln(out, "Updating...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return restart(exe, out, latest.Version)
}

// restart replaces the process with the new binary. If exec fails the new
// binary is started as a child instead.
func restart(exe string, out io.Writer, v semver.Version) error {
	argv := append([]string{exe}, os.Args[1:]...)
	err := syscall.Exec(exe, argv, os.Environ())
	// Exec only returns on error.
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if startErr := cmd.Start(); startErr != nil {
		fmt.Fprintf(out, "Updated to version %s, but failed to restart automatically: %v; fallback start error: %v\n", v, err, startErr)
		fmt.Fprintln(out, "Please restart the application manually.")
		return nil
	}
	os.Exit(0)
	return nil
}
