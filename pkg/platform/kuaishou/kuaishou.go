// Package kuaishou targets the Kuaishou creator platform.
package kuaishou

import (
	"context"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Key() string { return "kuaishou" }

func (*Adapter) LoginEntryURL() string { return "https://cp.kuaishou.com" }

func (*Adapter) AuthenticatedLandingURL() string {
	return "https://cp.kuaishou.com/article/manage/video*"
}

func (*Adapter) PublishSurfaceURL() string {
	return "https://cp.kuaishou.com/article/publish/video"
}

func (*Adapter) PublishSuccessURLPattern() string {
	return "https://cp.kuaishou.com/article/manage/video*"
}

func (*Adapter) RequiresLogin() browser.LocatorSet {
	return browser.Locators("login prompt",
		`text="立即登录"`,
		`text="扫码登录"`,
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
		// Ready once the uploading indicator goes away.
		MediaProcessed: []browser.LocatorSet{
			{
				Name:      "uploading indicator gone",
				Selectors: []string{`text=上传中`},
				State:     browser.StateHidden,
			},
		},
		// Title and description share the work-description editor.
		TitleFallback: browser.Locators("work description editor", `#work-description-edit`),
		Description:   browser.Locators("work description editor", `#work-description-edit`),
		TagField:      browser.Locators("work description editor", `#work-description-edit`),
		TagMarker:     "#",
		TagCommitKey:  "Enter",
		Submit:        browser.Locators("publish button", `text="发布"`),
		SubmitConfirm: browser.LocatorSet{
			Name:      "confirm publish button",
			Selectors: []string{`text="确认发布"`},
			Timeout:   5 * time.Second,
		},
	}
}

func (*Adapter) Hooks() platform.Hooks {
	return platform.Hooks{
		SetCover:          setCover,
		ConfigureSchedule: configureSchedule,
	}
}

func setCover(ctx context.Context, h browser.Handle, coverPath string) error {
	if err := h.Click(ctx, browser.Locators("cover settings entry", `text="封面设置"`)); err != nil {
		return err
	}
	if err := h.Detect(ctx, browser.Locators("cover dialog", `div.ant-modal-body`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("upload cover tab", `text="上传封面"`)); err != nil {
		return err
	}
	input := browser.LocatorSet{
		Name:      "cover file input",
		Selectors: []string{`div[class*='upload'] input[type='file']`},
		State:     browser.StateAttached,
	}
	if err := h.Upload(ctx, input, coverPath); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("confirm button", `button:has-text("确认")`)); err != nil {
		return err
	}
	return h.Detect(ctx, browser.LocatorSet{
		Name:      "cover dialog dismissed",
		Selectors: []string{`div.ant-modal`},
		State:     browser.StateDetached,
		Timeout:   15 * time.Second,
	})
}

func configureSchedule(ctx context.Context, h browser.Handle, at time.Time) error {
	if err := h.Click(ctx, browser.Locators("schedule radio", `label:has-text("发布时间") ~ div .ant-radio-input >> nth=1`)); err != nil {
		return err
	}
	if err := h.Click(ctx, browser.Locators("schedule input", `div.ant-picker-input input[placeholder="选择日期时间"]`)); err != nil {
		return err
	}
	if err := h.Press(ctx, "ControlOrMeta+a"); err != nil {
		return err
	}
	if err := h.TypeText(ctx, at.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	return h.Press(ctx, "Enter")
}
