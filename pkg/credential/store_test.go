package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() *State {
	return &State{
		Cookies: []Cookie{
			{Name: "sessionid", Value: "abc123", Domain: ".douyin.com", Path: "/", Expires: 1924992000, HTTPOnly: true, Secure: true, SameSite: "Lax"},
			{Name: "csrf", Value: "tok", Domain: "creator.douyin.com", Path: "/"},
		},
		Origins: []Origin{
			{
				Origin:       "https://creator.douyin.com",
				LocalStorage: []StorageEntry{{Name: "user_id", Value: "42"}},
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save("douyin", testState()))
	require.True(t, store.Exists("douyin"))

	loaded, err := store.Load("douyin")
	require.NoError(t, err)
	assert.Equal(t, testState(), loaded)
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("tencent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Exists("tencent"))
}

func TestLoadBareCookieList(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("kuaishou")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))

	doc := `[
  {"name": "kuaishou.web.cp.api_st", "value": "xyz", "domain": ".kuaishou.com", "path": "/"},
  {"name": "userId", "value": "7", "domain": ".kuaishou.com", "path": "/"}
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	state, err := store.Load("kuaishou")
	require.NoError(t, err)
	require.Len(t, state.Cookies, 2)
	assert.Equal(t, "kuaishou.web.cp.api_st", state.Cookies[0].Name)
	assert.Empty(t, state.Origins)
}

func TestLoadStorageStateShape(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("xiaohongshu")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))

	doc := `{
  "cookies": [{"name": "web_session", "value": "s1", "domain": ".xiaohongshu.com", "path": "/", "httpOnly": true}],
  "origins": [{"origin": "https://creator.xiaohongshu.com", "localStorage": [{"name": "theme", "value": "light"}]}]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	state, err := store.Load("xiaohongshu")
	require.NoError(t, err)
	require.Len(t, state.Cookies, 1)
	assert.True(t, state.Cookies[0].HTTPOnly)
	require.Len(t, state.Origins, 1)
	assert.Equal(t, "theme", state.Origins[0].LocalStorage[0].Name)
}

func TestLoadCorruptFileFailsAfterRetry(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("douyin")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(`{"cookies": [truncat`), 0600))

	_, err := store.Load("douyin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save("douyin", testState()))

	replacement := &State{Cookies: []Cookie{{Name: "only", Value: "one"}}}
	require.NoError(t, store.Save("douyin", replacement))

	loaded, err := store.Load("douyin")
	require.NoError(t, err)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "only", loaded.Cookies[0].Name)

	// no temp file left behind
	entries, err := os.ReadDir(filepath.Dir(store.Path("douyin")))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stale temp file %s", e.Name())
	}
}

func TestEncodeProducesStorageStateShape(t *testing.T) {
	data, err := testState().Encode()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "cookies")
	assert.Contains(t, doc, "origins")
}

func TestDecodeEmptyDocument(t *testing.T) {
	_, err := Decode([]byte("   \n"))
	assert.Error(t, err)
}
