// Package sites holds the per-platform search bundles: a url template, the
// page-side extraction script, a readiness check and the timing budget. The
// bundles are pure data, all control flow lives in the extraction engine.
package sites

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Record is one normalized search result. Every backend, page-side or
// subprocess, produces this same shape.
type Record struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
	Likes   string `json:"likes,omitempty"`
}

// Site is one platform bundle. Extract must evaluate to a JSON string of
// records, Ready to something truthy once the page has rendered enough to
// try extracting.
type Site struct {
	Name        string
	URL         string // printf template, the escaped query replaces %s
	Extract     string
	Ready       string
	InitialWait time.Duration
	MaxWait     time.Duration
}

// SearchURL renders the url template with the query escaped.
func (s Site) SearchURL(query string) string {
	// %20 instead of + so the same escaping works in path segments (36kr)
	// and query strings (sogou, xhs) alike.
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return fmt.Sprintf(s.URL, escaped)
}

// The built-in bundles. Timing budgets are per site: 36kr's SPA is the
// slowest to settle, sogou renders server-side and only needs the floor.
var (
	Wechat = Site{
		Name:        "wechat",
		URL:         "https://weixin.sogou.com/weixin?type=2&query=%s",
		Extract:     jsWechat,
		Ready:       `document.querySelectorAll('#main .txt-box').length > 0`,
		InitialWait: 4 * time.Second,
		MaxWait:     12 * time.Second,
	}

	Kr36 = Site{
		Name:        "36kr",
		URL:         "https://36kr.com/search/articles/%s",
		Extract:     js36kr,
		Ready:       `document.querySelectorAll('.kr-flow-article-item').length > 0`,
		InitialWait: 6 * time.Second,
		MaxWait:     18 * time.Second,
	}

	XHS = Site{
		Name:        "xhs",
		URL:         "https://www.xiaohongshu.com/search_result?keyword=%s&type=51",
		Extract:     jsXHS,
		Ready:       `document.querySelectorAll('section.note-item').length > 0`,
		InitialWait: 4 * time.Second,
		MaxWait:     15 * time.Second,
	}
)

// All returns the built-in bundles in their canonical order.
func All() []Site {
	return []Site{Wechat, Kr36, XHS}
}

// Get looks up a built-in bundle by name.
func Get(name string) (Site, bool) {
	for _, s := range All() {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// DecodeRecords parses the serialized collection an extractor returns.
func DecodeRecords(raw string) ([]Record, error) {
	var list []Record
	err := json.Unmarshal([]byte(raw), &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// wire format for user-defined bundles, waits are plain seconds
type siteFile struct {
	Sites []struct {
		Name        string  `yaml:"name"`
		URL         string  `yaml:"url"`
		Extract     string  `yaml:"extract"`
		Ready       string  `yaml:"ready"`
		InitialWait float64 `yaml:"initial_wait"`
		MaxWait     float64 `yaml:"max_wait"`
	} `yaml:"sites"`
}

// Load reads user-defined site bundles from a yaml file. Missing waits fall
// back to the xhs budget, the most common shape for js-rendered result
// pages.
func Load(path string) ([]Site, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f siteFile
	err = yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, err
	}

	list := make([]Site, 0, len(f.Sites))
	for _, s := range f.Sites {
		site := Site{
			Name:        s.Name,
			URL:         s.URL,
			Extract:     s.Extract,
			Ready:       s.Ready,
			InitialWait: time.Duration(s.InitialWait * float64(time.Second)),
			MaxWait:     time.Duration(s.MaxWait * float64(time.Second)),
		}
		if site.Name == "" || site.URL == "" || site.Extract == "" {
			return nil, fmt.Errorf("site %q: name, url and extract are required", s.Name)
		}
		if site.InitialWait <= 0 {
			site.InitialWait = XHS.InitialWait
		}
		if site.MaxWait <= 0 {
			site.MaxWait = XHS.MaxWait
		}
		list = append(list, site)
	}
	return list, nil
}
