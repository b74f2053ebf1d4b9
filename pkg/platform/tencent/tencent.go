// Package tencent targets WeChat Channels (视频号).
package tencent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Key() string { return "tencent" }

func (*Adapter) LoginEntryURL() string { return "https://channels.weixin.qq.com" }

func (*Adapter) AuthenticatedLandingURL() string {
	return "https://channels.weixin.qq.com/platform/post/list*"
}

func (*Adapter) PublishSurfaceURL() string {
	return "https://channels.weixin.qq.com/platform/post/create"
}

func (*Adapter) PublishSuccessURLPattern() string {
	return "https://channels.weixin.qq.com/platform/post/list*"
}

func (*Adapter) RequiresLogin() browser.LocatorSet {
	return browser.Locators("login prompt",
		`div.title-name:has-text("微信小店")`,
		`text="登录"`,
		`.login-btn`,
	)
}

func (*Adapter) Locators() platform.Catalog {
	return platform.Catalog{
		MediaInput: browser.LocatorSet{
			Name:      "video file input",
			Selectors: []string{`input[type="file"]`},
			State:     browser.StateAttached,
		},
		// The publish button enables only once the media is processed.
		MediaProcessed: []browser.LocatorSet{
			browser.Locators("publish button enabled",
				`div.form-btns button:has-text("发表"):not(.weui-desktop-btn_disabled)`),
		},
		// One editor takes title, description and tags as successive lines.
		TitleFallback: browser.Locators("post editor", `div.input-editor`),
		Description:   browser.Locators("post editor", `div.input-editor`),
		TagField:      browser.Locators("post editor", `div.input-editor`),
		TagMarker:     "#",
		TagCommitKey:  "Space",
		Submit:        browser.Locators("publish button", `div.form-btns button:has-text("发表")`),
	}
}

func (*Adapter) Hooks() platform.Hooks {
	return platform.Hooks{
		SetCover:          setCover,
		ConfigureSchedule: configureSchedule,
		PlatformExtras:    declareOriginal,
	}
}

func setCover(ctx context.Context, h browser.Handle, coverPath string) error {
	if err := h.Click(ctx, browser.Locators("profile card entry", `text="个人主页卡片"`)); err != nil {
		return err
	}
	if err := h.Detect(ctx, browser.Locators("cover dialog", `div.weui-desktop-dialog`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("upload cover button", `div:has-text("上传封面")`)); err != nil {
		return err
	}
	input := browser.LocatorSet{
		Name:      "cover file input",
		Selectors: []string{`div.single-cover-uploader-wrap input[type="file"]`},
		State:     browser.StateAttached,
	}
	if err := h.Upload(ctx, input, coverPath); err != nil {
		return err
	}
	return h.Click(ctx, browser.Locators("confirm button", `button:has-text("确认")`))
}

func configureSchedule(ctx context.Context, h browser.Handle, at time.Time) error {
	if err := h.Click(ctx, browser.Locators("schedule radio", `label:has-text("定时")`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("date picker", `input[placeholder="请选择发表时间"]`)); err != nil {
		return err
	}

	// The picker opens on the current month; step forward when the target
	// month is not shown.
	monthLabel := browser.LocatorSet{
		Name:      "picker month label",
		Selectors: []string{fmt.Sprintf(`span.weui-desktop-picker__panel__label:has-text("%02d月")`, at.Month())},
		Timeout:   3 * time.Second,
	}
	err := h.Detect(ctx, monthLabel)
	var notFound *browser.ElementNotFoundError
	if errors.As(err, &notFound) {
		if err := h.Click(ctx, browser.Locators("next month", `button.weui-desktop-btn__icon__right`)); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	day := browser.Locators("day cell",
		fmt.Sprintf(`table.weui-desktop-picker__table a:text-is("%d"):not(.weui-desktop-picker__disabled)`, at.Day()))
	if err := h.Click(ctx, day); err != nil {
		return err
	}

	if err := h.Click(ctx, browser.Locators("time input", `input[placeholder="请选择时间"]`)); err != nil {
		return err
	}
	if err := h.Press(ctx, "ControlOrMeta+a"); err != nil {
		return err
	}
	if err := h.TypeText(ctx, fmt.Sprintf("%d", at.Hour())); err != nil {
		return err
	}
	// clicking the editor closes the picker
	return h.Click(ctx, browser.Locators("post editor", `div.input-editor`))
}

// declareOriginal ticks the original-content checkbox when the form offers
// it; accounts without the option skip silently.
func declareOriginal(ctx context.Context, h browser.Handle) error {
	checkbox := browser.LocatorSet{
		Name:      "original declaration",
		Selectors: []string{`label:has-text("视频为原创")`},
		Timeout:   3 * time.Second,
	}
	err := h.Detect(ctx, checkbox)
	var notFound *browser.ElementNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.Click(ctx, checkbox)
}
