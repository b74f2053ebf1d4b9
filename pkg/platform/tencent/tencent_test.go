package tencent

import (
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BadKid90s/Spreado/pkg/platform"
)

var _ platform.Adapter = (*Adapter)(nil)

func TestSuccessPatternMatchesPostList(t *testing.T) {
	a := New()
	g, err := glob.Compile(a.PublishSuccessURLPattern())
	require.NoError(t, err)
	assert.True(t, g.Match("https://channels.weixin.qq.com/platform/post/list?tab=post"))
	assert.False(t, g.Match("https://channels.weixin.qq.com/platform/post/create"))
}

func TestTitleGoesThroughSharedEditor(t *testing.T) {
	cat := New().Locators()
	assert.Empty(t, cat.Title.Selectors, "no dedicated title input on this platform")
	assert.NotEmpty(t, cat.TitleFallback.Selectors)
	assert.Equal(t, cat.TitleFallback.Selectors, cat.Description.Selectors)
}
