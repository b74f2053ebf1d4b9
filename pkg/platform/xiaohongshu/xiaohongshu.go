// Package xiaohongshu targets the Xiaohongshu creator platform.
package xiaohongshu

import (
	"context"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Key() string { return "xiaohongshu" }

func (*Adapter) LoginEntryURL() string { return "https://creator.xiaohongshu.com/" }

func (*Adapter) AuthenticatedLandingURL() string {
	return "https://creator.xiaohongshu.com/publish/success*"
}

func (*Adapter) PublishSurfaceURL() string {
	return "https://creator.xiaohongshu.com/publish/publish?from=homepage&target=video"
}

func (*Adapter) PublishSuccessURLPattern() string {
	return "https://creator.xiaohongshu.com/publish/success*"
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
			Selectors: []string{`input.upload-input`},
			State:     browser.StateAttached,
		},
		// Several independent signals mark the media as processed; any one
		// ends the wait.
		MediaProcessed: []browser.LocatorSet{
			browser.Locators("preview pane", `div.upload-content div.preview-new`, `div.preview-new`, `div[class*="preview"]`),
			browser.Locators("upload success text", `text=上传成功`, `text=已上传`),
			browser.Locators("title editor available", `input[placeholder*='填写标题']`),
		},
		Title:         browser.Locators("title input", `input[placeholder*='填写标题']`),
		TitleLimit:    20,
		TitleFallback: browser.Locators("title zone", `.notranslate`),
		Description:   browser.Locators("note editor", `div.tiptap-container div[contenteditable]`),
		TagField:      browser.Locators("note editor", `div.tiptap-container div[contenteditable]`),
		TagMarker:     "#",
		TagCommitKey:  "Enter",
		Submit:        browser.Locators("publish button", `button:has-text("发布")`),
	}
}

func (*Adapter) Hooks() platform.Hooks {
	return platform.Hooks{
		SetCover:          setCover,
		ConfigureSchedule: configureSchedule,
	}
}

func setCover(ctx context.Context, h browser.Handle, coverPath string) error {
	entry := browser.Locators("cover entry",
		`div[class*="upload"]:has-text("封面")`,
		`text="封面"`,
		`button:has-text("封面")`,
	)
	if err := h.Click(ctx, entry); err != nil {
		return err
	}
	if err := h.Detect(ctx, browser.Locators("cover editor", `.canvas-container > .cover-container`)); err != nil {
		return err
	}
	input := browser.LocatorSet{
		Name:      "cover file input",
		Selectors: []string{`input[type='file'][accept='image/png, image/jpeg, image/*']`},
		State:     browser.StateAttached,
	}
	if err := h.Upload(ctx, input, coverPath); err != nil {
		return err
	}
	return h.Click(ctx, browser.Locators("confirm button",
		`button:has-text("确认")`,
		`button:has-text("确定")`,
	))
}

func configureSchedule(ctx context.Context, h browser.Handle, at time.Time) error {
	if err := h.Click(ctx, browser.Locators("schedule radio",
		`label:has-text('定时发布')`,
		`.el-radio__label:has-text('定时发布')`,
	)); err != nil {
		return err
	}
	input := browser.LocatorSet{
		Name:      "schedule input",
		Selectors: []string{`.el-input__inner[placeholder="选择日期和时间"]`},
		Timeout:   5 * time.Second,
	}
	if err := h.Fill(ctx, input, at.Format("2006-01-02 15:04")); err != nil {
		return err
	}
	return h.Press(ctx, "Enter")
}
