// Package defaults holds commonly used options parsed from env var "qianli".
// Set them will set the default value of the matching CLI flags.
// Each value is separated by a ",", key and value are separated by "=",
// For example:
//
//    qianli=json,quiet
//
//    qianli=url=http://10.0.0.2:9222,limit=5,mc-dir=/opt/MediaCrawler
//
// QIANLI_URL on its own also sets the endpoint.
package defaults

import (
	"os"
	"strconv"
	"strings"
)

// URL is the default devtools endpoint.
var URL string

// Limit is the default per-source result cap.
var Limit int

// JSON switches the default output format.
var JSON bool

// Quiet drops advisory diagnostics.
var Quiet bool

// MCDir overrides the MediaCrawler checkout location.
var MCDir string

// Parse the flags
func init() {
	ResetWithEnv()
}

// Reset all flags to their init values.
func Reset() {
	URL = ""
	Limit = 10
	JSON = false
	Quiet = false
	MCDir = ""
}

// ResetWithEnv all flags by the value of the qianli env vars.
func ResetWithEnv() {
	Reset()
	if u := os.Getenv("QIANLI_URL"); u != "" {
		URL = u
	}
	parse(os.Getenv("qianli"))
}

// parse options and set them globally
func parse(options string) {
	if options == "" {
		return
	}

	for _, f := range strings.Split(options, ",") {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) == 2 {
			rules[kv[0]](kv[1])
		} else {
			rules[kv[0]]("")
		}
	}
}

var rules = map[string]func(string){
	"url": func(v string) {
		URL = v
	},
	"limit": func(v string) {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		Limit = n
	},
	"json": func(string) {
		JSON = true
	},
	"quiet": func(string) {
		Quiet = true
	},
	"mc-dir": func(v string) {
		MCDir = v
	},
}
