// Package douyin targets the Douyin creator studio.
package douyin

import (
	"context"
	"errors"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Key() string { return "douyin" }

func (*Adapter) LoginEntryURL() string { return "https://creator.douyin.com/" }

func (*Adapter) AuthenticatedLandingURL() string {
	return "https://creator.douyin.com/creator-micro/content/manage*"
}

func (*Adapter) PublishSurfaceURL() string {
	return "https://creator.douyin.com/creator-micro/content/upload"
}

func (*Adapter) PublishSuccessURLPattern() string {
	return "https://creator.douyin.com/creator-micro/content/manage*"
}

func (*Adapter) RequiresLogin() browser.LocatorSet {
	return browser.Locators("login prompt",
		`text="手机号登录"`,
		`text="扫码登录"`,
		`text="登录"`,
		`.login-btn`,
	)
}

func (*Adapter) Locators() platform.Catalog {
	return platform.Catalog{
		MediaInput: browser.LocatorSet{
			Name:      "video file input",
			Selectors: []string{`div[class^='container'] input`},
			State:     browser.StateAttached,
		},
		MediaProcessed: []browser.LocatorSet{
			browser.Locators("reupload control", `div[class*='preview-button-']:has(div:text('重新上传'))`),
		},
		Title:         browser.Locators("title input", `input[placeholder*='填写作品标题']`),
		TitleLimit:    30,
		TitleFallback: browser.Locators("title zone", `.notranslate`),
		Description:   browser.Locators("description zone", `.zone-container`),
		TagField:      browser.Locators("description zone", `.zone-container`),
		TagMarker:     "#",
		TagCommitKey:  "Space",
		Submit:        browser.Locators("publish button", `button:text-is("发布")`),
	}
}

func (*Adapter) Hooks() platform.Hooks {
	return platform.Hooks{
		SetCover:          setCover,
		ConfigureSchedule: configureSchedule,
		PlatformExtras:    pickRecommendedCoverIfRequired,
	}
}

func setCover(ctx context.Context, h browser.Handle, coverPath string) error {
	if err := h.Click(ctx, browser.Locators("cover entry", `text="选择封面"`)); err != nil {
		return err
	}
	if err := h.Detect(ctx, browser.Locators("cover dialog", `div.dy-creator-content-modal`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("portrait cover tab", `text="设置竖封面"`)); err != nil {
		return err
	}
	input := browser.LocatorSet{
		Name:      "cover file input",
		Selectors: []string{`div[class^='semi-upload upload'] >> input.semi-upload-hidden-input`},
		State:     browser.StateAttached,
	}
	if err := h.Upload(ctx, input, coverPath); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("cover done button", `button:has-text("完成")`)); err != nil {
		return err
	}
	return h.Detect(ctx, browser.LocatorSet{
		Name:      "cover dialog dismissed",
		Selectors: []string{`div.extractFooter`},
		State:     browser.StateDetached,
		Timeout:   15 * time.Second,
	})
}

func configureSchedule(ctx context.Context, h browser.Handle, at time.Time) error {
	if err := h.Click(ctx, browser.Locators("schedule radio", `[class^='radio']:has-text('定时发布')`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("schedule input", `.semi-input[placeholder="日期和时间"]`)); err != nil {
		return err
	}
	if err := h.Press(ctx, "ControlOrMeta+a"); err != nil {
		return err
	}
	if err := h.TypeText(ctx, at.Format("2006-01-02 15:04")); err != nil {
		return err
	}
	return h.Press(ctx, "Enter")
}

// pickRecommendedCoverIfRequired handles the studio refusing to publish
// without a cover: it applies the first recommended frame.
func pickRecommendedCoverIfRequired(ctx context.Context, h browser.Handle) error {
	prompt := browser.LocatorSet{
		Name:      "cover required prompt",
		Selectors: []string{`text=请设置封面后再发布`},
		Timeout:   3 * time.Second,
	}
	err := h.Detect(ctx, prompt)
	var notFound *browser.ElementNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := h.Click(ctx, browser.Locators("recommended cover", `[class^="recommendCover-"]`)); err != nil {
		return err
	}

	confirm := browser.LocatorSet{
		Name:      "apply cover confirmation",
		Selectors: []string{`text=是否确认应用此封面？`},
		Timeout:   3 * time.Second,
	}
	err = h.Detect(ctx, confirm)
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.Click(ctx, browser.Locators("confirm button", `button:has-text("确定")`))
}
