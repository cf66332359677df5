package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-qianli/qianli/lib/sites"
)

func sample() []sites.Record {
	return []sites.Record{
		{
			Source:  "xhs",
			Title:   "深度学习入门",
			URL:     "https://www.xiaohongshu.com/explore/abc",
			Snippet: "from zero to one",
			Author:  "@小明",
			Date:    "2026-08-01",
			Likes:   "1.2万",
		},
		{Source: "wechat", Title: "bare minimum", URL: "https://example.com"},
	}
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	printText(&buf, sample())

	out := buf.String()
	assert.Contains(t, out, "[xhs] 深度学习入门\n")
	assert.Contains(t, out, "    @小明 · 2026-08-01 · ❤ 1.2万\n")
	assert.Contains(t, out, "    https://www.xiaohongshu.com/explore/abc\n")
	assert.Contains(t, out, "[wechat] bare minimum\n")
}

func TestPrintTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	printText(&buf, nil)
	assert.Equal(t, "no results\n", buf.String())
}

func TestPrintTextSkipsEmptyMeta(t *testing.T) {
	var buf bytes.Buffer
	printText(&buf, []sites.Record{{Source: "36kr", Title: "t", URL: "u"}})
	assert.Equal(t, "[36kr] t\n    u\n\n", buf.String())
}

func TestPrintJSONKeepsUnicode(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, printJSON(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, `"title": "深度学习入门"`)
	assert.NotContains(t, out, `\u`)
}

func TestPrintJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, printJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
