package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasic(t *testing.T) {
	JSON = true
	URL = "test"
	Limit = 99

	ResetWithEnv()
	parse("")
	assert.False(t, JSON)
	assert.Equal(t, "", URL)
	assert.Equal(t, 10, Limit)

	parse("url=http://test.com:9222,limit=5,json,quiet,mc-dir=/opt/MediaCrawler")

	assert.Equal(t, "http://test.com:9222", URL)
	assert.Equal(t, 5, Limit)
	assert.True(t, JSON)
	assert.True(t, Quiet)
	assert.Equal(t, "/opt/MediaCrawler", MCDir)

	assert.Panics(t, func() {
		parse("limit=abc")
	})
	assert.Panics(t, func() {
		parse("a")
	})
}
