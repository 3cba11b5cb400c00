// Package update tells the operator when a newer pbpup release is published.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	defaultReleasesAPI = "https://api.github.com/repos/protex/pbpup/releases"
	userAgent          = "pbpup/update-check"
	cacheRelPath       = "pbpup/update-check.yaml"
	requestTimeout     = 3 * time.Second
	installPath        = "github.com/protex/pbpup/cmd/pbpup@latest"
)

// Release is a published, non-draft, non-prerelease version.
type Release struct {
	Tag string
	URL string
}

// Cache throttles network checks between runs.
type Cache struct {
	LastChecked      time.Time `yaml:"last_checked"`
	LastShownVersion string    `yaml:"last_shown_version,omitempty"`
}

// Checker compares the running version with the newest stable release.
type Checker struct {
	ReleasesURL string
	CachePath   string
	Frequency   time.Duration
	Client      *http.Client
	Now         func() time.Time
}

// NewChecker builds a Checker from the environment. PBPUP_RELEASES_URL and
// PBPUP_UPDATE_CHECK_FREQUENCY override the defaults.
func NewChecker(frequency time.Duration) *Checker {
	c := &Checker{
		ReleasesURL: defaultReleasesAPI,
		CachePath:   filepath.Join(cacheDir(), cacheRelPath),
		Frequency:   frequency,
		Client:      &http.Client{Timeout: requestTimeout},
		Now:         func() time.Time { return time.Now().UTC() },
	}
	if u := os.Getenv("PBPUP_RELEASES_URL"); u != "" {
		c.ReleasesURL = u
	}
	if f := os.Getenv("PBPUP_UPDATE_CHECK_FREQUENCY"); f != "" {
		if d, err := time.ParseDuration(f); err == nil && d > 0 {
			c.Frequency = d
		}
	}
	return c
}

// Due reports whether the throttle window since the last check has passed.
func (c *Checker) Due(cache Cache) bool {
	if cache.LastChecked.IsZero() {
		return true
	}
	return c.Now().Sub(cache.LastChecked) >= c.Frequency
}

// Check returns the newest stable release when it is newer than current, or
// nil when current is up to date. The cache is stamped whatever the outcome.
func (c *Checker) Check(ctx context.Context, current string) (*Release, error) {
	cur, err := semver.NewVersion(strings.TrimSpace(current))
	if err != nil {
		return nil, fmt.Errorf("current version %q: %w", current, err)
	}

	cache, _ := loadCache(c.CachePath)
	if !c.Due(cache) {
		return nil, nil
	}
	defer func() {
		cache.LastChecked = c.Now()
		_ = saveCache(c.CachePath, cache)
	}()

	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return nil, err
	}
	lv, err := semver.NewVersion(latest.Tag)
	if err != nil {
		return nil, fmt.Errorf("release tag %q: %w", latest.Tag, err)
	}
	if !lv.GreaterThan(cur) {
		return nil, nil
	}
	cache.LastShownVersion = latest.Tag
	return latest, nil
}

type ghRelease struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// fetchLatest relies on GitHub listing releases newest first.
func (c *Checker) fetchLatest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var releases []ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, err
	}
	stable, ok := lo.Find(releases, func(r ghRelease) bool {
		return !r.Draft && !r.Prerelease && r.TagName != ""
	})
	if !ok {
		return nil, errors.New("no stable releases found")
	}
	return &Release{Tag: stable.TagName, URL: stable.HTMLURL}, nil
}

// MaybeShowMessage prints an upgrade notice when a newer release exists.
// Failures are silent; the check must never get in the operator's way.
func MaybeShowMessage(ctx context.Context, currentVersion string, frequency time.Duration) {
	defer func() { _ = recover() }()

	if invokedTrivialCommand(os.Args[1:]) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	rel, err := NewChecker(frequency).Check(ctx, currentVersion)
	if err != nil || rel == nil {
		return
	}
	printNotice(currentVersion, rel, suggestUpgradeCommand())
}

func printNotice(current string, rel *Release, upgrade string) {
	pterm.Println()
	pterm.Info.Printf("A new release of pbpup is available: %s → %s\n",
		strings.TrimPrefix(current, "v"), strings.TrimPrefix(rel.Tag, "v"))
	if rel.URL != "" {
		pterm.Info.Printf("Release notes: %s\n", rel.URL)
	}
	if upgrade != "" {
		pterm.Info.Printf("To upgrade, run: %s\n", upgrade)
	} else {
		pterm.Info.Println("To upgrade, visit the release page above or use your package manager.")
	}
}

func cacheDir() string {
	if d := os.Getenv("XDG_CACHE_HOME"); d != "" {
		return d
	}
	if d, err := os.UserCacheDir(); err == nil {
		return d
	}
	return "."
}

func loadCache(path string) (Cache, error) {
	var c Cache
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Cache{}, err
	}
	return c, nil
}

func saveCache(path string, c Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// suggestUpgradeCommand infers the install method from the running binary.
func suggestUpgradeCommand() string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		paths = append(paths, exe)
	}
	if which, err := exec.LookPath("pbpup"); err == nil {
		paths = append(paths, which)
	}
	return upgradeCommandFor(paths, os.Getenv("GOBIN"), os.Getenv("GOPATH"))
}

func upgradeCommandFor(paths []string, gobin, gopath string) string {
	norm := func(p string) string { return strings.ToLower(filepath.ToSlash(p)) }
	for _, p := range lo.Map(paths, func(p string, _ int) string { return norm(p) }) {
		switch {
		case strings.Contains(p, "homebrew") || strings.Contains(p, "/cellar/"):
			return "brew upgrade pbpup"
		case gobin != "" && strings.HasPrefix(p, norm(gobin)),
			gopath != "" && strings.HasPrefix(p, norm(filepath.Join(gopath, "bin"))),
			strings.Contains(p, "/go/bin/"):
			return "go install " + installPath
		}
	}
	return ""
}

var trivialArgs = []string{"--version", "-v", "help", "--help", "-h", "completion"}

// invokedTrivialCommand reports whether args are a help, completion or
// version invocation.
func invokedTrivialCommand(args []string) bool {
	return lo.ContainsBy(args, func(a string) bool { return lo.Contains(trivialArgs, a) })
}
