package sites_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-qianli/qianli/lib/sites"
)

func TestSearchURL(t *testing.T) {
	u := sites.Wechat.SearchURL("深度学习")
	assert.Equal(t, "https://weixin.sogou.com/weixin?type=2&query=%E6%B7%B1%E5%BA%A6%E5%AD%A6%E4%B9%A0", u)

	// spaces must survive in path templates, so %20 instead of +
	u = sites.Kr36.SearchURL("a b&c")
	assert.Equal(t, "https://36kr.com/search/articles/a%20b%26c", u)
}

func TestGet(t *testing.T) {
	s, ok := sites.Get("36kr")
	assert.True(t, ok)
	assert.Equal(t, 18*time.Second, s.MaxWait)

	_, ok = sites.Get("nope")
	assert.False(t, ok)
}

func TestAllOrder(t *testing.T) {
	names := []string{}
	for _, s := range sites.All() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"wechat", "36kr", "xhs"}, names)
}

func TestDecodeRecords(t *testing.T) {
	list, err := sites.DecodeRecords(`[{"source":"xhs","title":"t","url":"u","likes":"12"}]`)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "12", list[0].Likes)

	_, err = sites.DecodeRecords(`{"not":"a list"}`)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	err := ioutil.WriteFile(path, []byte(`
sites:
  - name: example
    url: https://example.com/search?q=%s
    extract: "JSON.stringify([])"
    ready: "true"
    initial_wait: 2
    max_wait: 8
  - name: defaults
    url: https://example.org/%s
    extract: "JSON.stringify([])"
`), 0644)
	assert.NoError(t, err)

	list, err := sites.Load(path)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2*time.Second, list[0].InitialWait)
	assert.Equal(t, 8*time.Second, list[0].MaxWait)
	assert.Equal(t, sites.XHS.InitialWait, list[1].InitialWait)
	assert.Equal(t, sites.XHS.MaxWait, list[1].MaxWait)
}

func TestLoadRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	err := ioutil.WriteFile(path, []byte("sites:\n  - name: broken\n"), 0644)
	assert.NoError(t, err)

	_, err = sites.Load(path)
	assert.Error(t, err)
}
