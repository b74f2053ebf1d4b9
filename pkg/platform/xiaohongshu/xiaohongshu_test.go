package xiaohongshu

import (
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BadKid90s/Spreado/pkg/platform"
)

var _ platform.Adapter = (*Adapter)(nil)

func TestSuccessPatternMatchesSuccessPage(t *testing.T) {
	a := New()
	g, err := glob.Compile(a.PublishSuccessURLPattern())
	require.NoError(t, err)
	assert.True(t, g.Match("https://creator.xiaohongshu.com/publish/success?bind_status=not_bind"))
	assert.False(t, g.Match("https://creator.xiaohongshu.com/publish/publish"))
}

func TestMediaProcessedHasIndependentSignals(t *testing.T) {
	cat := New().Locators()
	assert.GreaterOrEqual(t, len(cat.MediaProcessed), 3, "preview pane, success text and editor availability")
	assert.Equal(t, 20, cat.TitleLimit)
}
