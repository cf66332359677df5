package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-qianli/qianli/lib/sites"
)

func output(w io.Writer, list []sites.Record) error {
	if asJSON {
		return printJSON(w, list)
	}
	printText(w, list)
	return nil
}

// printJSON keeps CJK text readable instead of \u-escaping it.
func printJSON(w io.Writer, list []sites.Record) error {
	if list == nil {
		list = []sites.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

func printText(w io.Writer, list []sites.Record) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for _, r := range list {
		fmt.Fprintf(w, "[%s] %s\n", r.Source, r.Title)
		if meta := metaLine(r); meta != "" {
			fmt.Fprintln(w, "    "+meta)
		}
		if r.URL != "" {
			fmt.Fprintln(w, "    "+r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintln(w, "    "+r.Snippet)
		}
		fmt.Fprintln(w)
	}
}

func metaLine(r sites.Record) string {
	var parts []string
	if r.Author != "" {
		parts = append(parts, r.Author)
	}
	if r.Date != "" {
		parts = append(parts, r.Date)
	}
	if r.Likes != "" {
		parts = append(parts, "❤ "+r.Likes)
	}
	return strings.Join(parts, " · ")
}
