// Package mcrawl shells out to a MediaCrawler checkout for the platforms the
// devtools path cannot reach reliably. It contributes nothing to the
// protocol or the poll loop, it only honors the same Record contract.
package mcrawl

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/ysmood/leakless"
	"github.com/ysmood/lookpath"

	"github.com/go-qianli/qianli/lib/sites"
)

// Platforms MediaCrawler can search.
const (
	PlatformXHS   = "xhs"
	PlatformZhihu = "zhihu"
)

// Logger for advisory diagnostics.
type Logger interface {
	Println(vs ...interface{})
}

type quietLogger struct{}

func (quietLogger) Println(_ ...interface{}) {}

// Runner drives one MediaCrawler installation as a subprocess. The child is
// started through leakless so it dies with us instead of surviving a killed
// run with a headless browser still attached.
type Runner struct {
	Dir     string // checkout location
	Python  string // interpreter, resolved by Check when empty
	Timeout time.Duration
	Logger  Logger
}

// New returns a runner for the conventional checkout location.
func New() *Runner {
	home, _ := os.UserHomeDir()
	return &Runner{
		Dir:     filepath.Join(home, "code", "MediaCrawler"),
		Timeout: 2 * time.Minute,
		Logger:  quietLogger{},
	}
}

// Check verifies the checkout exists and resolves the interpreter: the
// checkout's venv first, any python3 on PATH as fallback.
func (r *Runner) Check() error {
	info, err := os.Stat(r.Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf(
			"MediaCrawler not found at %s, clone https://github.com/NanmiCoder/MediaCrawler and set up its venv",
			r.Dir,
		)
	}

	if r.Python != "" {
		return nil
	}

	venv := filepath.Join(r.Dir, ".venv", "bin", "python")
	if _, err := os.Stat(venv); err == nil {
		r.Python = venv
		return nil
	}

	p, err := lookpath.LookPath(os.Getenv("PATH"), "python3")
	if err != nil {
		return fmt.Errorf("no python interpreter for MediaCrawler: %v", err)
	}
	r.Python = p
	return nil
}

// Search runs one MediaCrawler search and normalizes its JSON output. A run
// that produces no output file is an empty result, not an error, so batch
// callers keep going.
func (r *Runner) Search(ctx context.Context, platform, query string, limit int) ([]sites.Record, error) {
	err := r.Check()
	if err != nil {
		return nil, err
	}

	outDir, err := ioutil.TempDir("", "qianli-mc-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	restore, err := r.capNotes(limit)
	if err != nil {
		return nil, err
	}
	defer restore()

	cmd := leakless.New().Command(r.Python, "main.py",
		"--platform", platform,
		"--type", "search",
		"--keywords", query,
		"--headless", "true",
		"--get_comment", "false",
		"--save_data_option", "json",
		"--save_data_path", outDir,
	)
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.Logger.Println("[" + platform + "] searching via MediaCrawler")

	err = cmd.Start()
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	deadline := time.NewTimer(r.Timeout)
	defer deadline.Stop()

	select {
	case err = <-done:
		if err != nil {
			r.reportNoise(platform, stderr.String())
			return nil, fmt.Errorf("mediacrawler: %w", err)
		}
	case <-deadline.C:
		_ = cmd.Process.Kill()
		<-done
		return nil, fmt.Errorf("mediacrawler timed out after %v", r.Timeout)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return nil, ctx.Err()
	}

	file := findContents(outDir, platform)
	if file == "" {
		r.Logger.Println("[" + platform + "] no results, output file missing")
		return nil, nil
	}

	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Normalize(platform, gjson.ParseBytes(data), limit), nil
}

// only the interesting stderr lines, the crawler is chatty
func (r *Runner) reportNoise(platform, stderr string) {
	for _, line := range strings.Split(stderr, "\n") {
		low := strings.ToLower(line)
		if strings.Contains(low, "error") || strings.Contains(low, "exception") {
			r.Logger.Println("["+platform+"]", strings.TrimSpace(line))
		}
	}
}

var reMaxNotes = regexp.MustCompile(`(?m)^CRAWLER_MAX_NOTES_COUNT\s*=\s*\d+`)

// capNotes temporarily patches the crawler's result cap in its config and
// returns the undo. The config is the only way MediaCrawler takes a limit.
func (r *Runner) capNotes(limit int) (restore func(), err error) {
	path := filepath.Join(r.Dir, "config", "base_config.py")
	orig, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	patched := reMaxNotes.ReplaceAll(orig, []byte(fmt.Sprintf("CRAWLER_MAX_NOTES_COUNT = %d", limit)))
	err = ioutil.WriteFile(path, patched, 0644)
	if err != nil {
		return nil, err
	}

	return func() { _ = ioutil.WriteFile(path, orig, 0644) }, nil
}

// findContents locates the search_contents_*.json file a run wrote.
func findContents(outDir, platform string) string {
	dir := filepath.Join(outDir, platform, "json")
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "search_contents_") && strings.HasSuffix(name, ".json") {
			return filepath.Join(dir, name)
		}
	}
	return ""
}

// Normalize converts raw MediaCrawler items into Records. A single object is
// treated as a one-item list.
func Normalize(platform string, items gjson.Result, limit int) []sites.Record {
	list := items.Array()
	if !items.IsArray() {
		list = []gjson.Result{items}
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]sites.Record, 0, len(list))
	for _, it := range list {
		switch platform {
		case PlatformXHS:
			out = append(out, normalizeXHS(it))
		case PlatformZhihu:
			out = append(out, normalizeZhihu(it))
		}
	}
	return out
}

func normalizeXHS(it gjson.Result) sites.Record {
	noteURL := it.Get("note_url").String()
	if noteURL == "" {
		if id := it.Get("note_id").String(); id != "" {
			noteURL = "https://www.xiaohongshu.com/explore/" + id
		}
	}
	return sites.Record{
		Source:  "xhs",
		Title:   it.Get("title").String(),
		URL:     noteURL,
		Snippet: clip(it.Get("desc").String(), 120),
		Author:  "@" + it.Get("nickname").String(),
		Date:    tsToDate(it.Get("time")),
		Likes:   it.Get("liked_count").String(),
	}
}

func normalizeZhihu(it gjson.Result) sites.Record {
	return sites.Record{
		Source:  "zhihu",
		Title:   it.Get("title").String(),
		URL:     it.Get("url").String(),
		Snippet: clip(it.Get("desc").String(), 120),
		Author:  it.Get("nickname").String(),
		Date:    tsToDate(it.Get("time")),
	}
}

// tsToDate renders a unix timestamp, seconds or milliseconds, as
// YYYY-MM-DD. Anything non-numeric passes through untouched.
func tsToDate(v gjson.Result) string {
	if v.String() == "" {
		return ""
	}
	ts := v.Int()
	if ts == 0 {
		return v.String()
	}
	if ts > 1_000_000_000_000 { // milliseconds
		ts /= 1000
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
