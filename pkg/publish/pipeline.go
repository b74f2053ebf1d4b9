package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/credential"
	"github.com/BadKid90s/Spreado/pkg/logging"
	"github.com/BadKid90s/Spreado/pkg/platform"
)

const (
	// DefaultMediaTimeout bounds the wait for a media-processed signal.
	DefaultMediaTimeout = 120 * time.Second

	// DefaultConfirmTimeout bounds the wait for the success URL.
	DefaultConfirmTimeout = 30 * time.Second
)

// Options configures a Pipeline.
type Options struct {
	// Session is the base session configuration; Platform is set per job.
	Session browser.SessionOptions

	// MediaTimeout is the media-processed wait ceiling; zero means 120s
	MediaTimeout time.Duration

	// ProceedOnMediaTimeout continues past a missed media-processed
	// signal instead of aborting. Platforms are known to sometimes omit
	// every signal while still being ready to submit.
	ProceedOnMediaTimeout bool

	// ConfirmTimeout bounds outcome confirmation; zero means 30s
	ConfirmTimeout time.Duration
}

// Pipeline publishes jobs through a fixed stage sequence. One pipeline can
// serve concurrent jobs; every run owns its own session.
type Pipeline struct {
	launcher browser.Launcher
	store    *credential.Store
	logger   *logging.Logger
	opts     Options
}

// NewPipeline creates a publish pipeline.
func NewPipeline(launcher browser.Launcher, store *credential.Store, logger *logging.Logger, opts Options) *Pipeline {
	return &Pipeline{launcher: launcher, store: store, logger: logger, opts: opts}
}

func (p *Pipeline) mediaTimeout() time.Duration {
	if p.opts.MediaTimeout <= 0 {
		return DefaultMediaTimeout
	}
	return p.opts.MediaTimeout
}

func (p *Pipeline) confirmTimeout() time.Duration {
	if p.opts.ConfirmTimeout <= 0 {
		return DefaultConfirmTimeout
	}
	return p.opts.ConfirmTimeout
}

// run is the per-job working state. The job itself stays untouched; the
// derived title and tags live here.
type run struct {
	handle  browser.Handle
	adapter platform.Adapter
	job     *Job
	catalog platform.Catalog
	hooks   platform.Hooks
	title   string
	tags    []string
}

type stage struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

// Publish runs the full stage sequence for one job. It acquires a session
// restored from the platform's stored credential, releases it on every exit
// path, and returns nil only after the outcome is positively confirmed.
func (p *Pipeline) Publish(ctx context.Context, adapter platform.Adapter, job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	state, err := p.store.Load(adapter.Key())
	if err != nil {
		return fmt.Errorf("publish: load credential for %s: %w", adapter.Key(), err)
	}

	opts := p.opts.Session
	opts.Platform = adapter.Key()

	h, err := p.launcher.Acquire(ctx, opts)
	if err != nil {
		return fmt.Errorf("publish: acquire session for %s: %w", adapter.Key(), err)
	}
	defer h.Release()

	if err := h.ImportState(state); err != nil {
		return fmt.Errorf("publish: restore session for %s: %w", adapter.Key(), err)
	}

	cat := adapter.Locators()
	r := &run{
		handle:  h,
		adapter: adapter,
		job:     job,
		catalog: cat,
		hooks:   adapter.Hooks(),
		title:   job.workingTitle(cat.TitleLimit),
		tags:    job.normalizedTags(),
	}

	stages := []stage{
		{StageOpenTargetSurface, p.openTargetSurface},
		{StageAttachMedia, p.attachMedia},
		{StageAwaitMediaProcessed, p.awaitMediaProcessed},
		{StageFillTitle, p.fillTitle},
		{StageFillDescription, p.fillDescription},
		{StageApplyTags, p.applyTags},
		{StageSetCover, p.setCover},
		{StageConfigureSchedule, p.configureSchedule},
		{StageApplyPlatformExtras, p.applyPlatformExtras},
		{StageSubmit, p.submit},
		{StageConfirmOutcome, p.confirmOutcome},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.Debugf("[%s] stage %s", adapter.Key(), s.name)
		if err := s.fn(ctx, r); err != nil {
			return &StageError{Platform: adapter.Key(), Stage: s.name, Cause: err}
		}
	}

	p.logger.Infof("[%s] publish confirmed for %s", adapter.Key(), job.FilePath)
	p.refreshCredential(r)
	return nil
}

func (p *Pipeline) openTargetSurface(ctx context.Context, r *run) error {
	return r.handle.Goto(ctx, r.adapter.PublishSurfaceURL())
}

func (p *Pipeline) attachMedia(ctx context.Context, r *run) error {
	return r.handle.Upload(ctx, r.catalog.MediaInput, r.job.FilePath)
}

// awaitMediaProcessed races the platform's independent ready signals; the
// first one observed wins. Missing all of them within the ceiling is fatal
// only when proceed-on-timeout is off.
func (p *Pipeline) awaitMediaProcessed(ctx context.Context, r *run) error {
	if len(r.catalog.MediaProcessed) == 0 {
		return nil
	}
	idx, err := r.handle.WaitAny(ctx, r.catalog.MediaProcessed, p.mediaTimeout())
	if err == nil {
		p.logger.Debugf("[%s] media ready, signal %q", r.adapter.Key(), r.catalog.MediaProcessed[idx].Name)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	timeoutErr := &MediaProcessingTimeoutError{Timeout: p.mediaTimeout()}
	if p.opts.ProceedOnMediaTimeout {
		p.logger.Warnf("[%s] %v, proceeding anyway", r.adapter.Key(), timeoutErr)
		return nil
	}
	return timeoutErr
}

func (p *Pipeline) fillTitle(ctx context.Context, r *run) error {
	if r.title == "" {
		return nil
	}

	// Platforms without a dedicated title input take the title as the
	// first line of the rich-text editor.
	if len(r.catalog.Title.Selectors) == 0 {
		if len(r.catalog.TitleFallback.Selectors) == 0 {
			return nil
		}
		if err := r.handle.Click(ctx, r.catalog.TitleFallback); err != nil {
			return err
		}
		if err := r.handle.TypeText(ctx, r.title); err != nil {
			return err
		}
		return r.handle.Press(ctx, "Enter")
	}

	err := r.handle.Fill(ctx, r.catalog.Title, r.title)
	if err == nil {
		return nil
	}

	// Some platforms render the title as a rich-text zone instead of an
	// input; fall back to clicking it and typing.
	var notFound *browser.ElementNotFoundError
	if !errors.As(err, &notFound) || len(r.catalog.TitleFallback.Selectors) == 0 {
		return err
	}
	if err := r.handle.Click(ctx, r.catalog.TitleFallback); err != nil {
		return err
	}
	if err := r.handle.Press(ctx, "ControlOrMeta+a"); err != nil {
		return err
	}
	if err := r.handle.Press(ctx, "Delete"); err != nil {
		return err
	}
	return r.handle.TypeText(ctx, r.title)
}

func (p *Pipeline) fillDescription(ctx context.Context, r *run) error {
	if len(r.catalog.Description.Selectors) == 0 || r.job.Description == "" {
		return nil
	}
	if err := r.handle.Click(ctx, r.catalog.Description); err != nil {
		return err
	}
	// Click can land the caret anywhere in an editor that already holds
	// the title line; move it to the end before typing.
	if err := r.handle.Press(ctx, "End"); err != nil {
		return err
	}
	return r.handle.TypeText(ctx, r.job.Description)
}

// applyTags types each tag through the field's marker-and-commit protocol.
// A single tag failing is logged and the loop continues; tags are
// best-effort, the publish is not.
func (p *Pipeline) applyTags(ctx context.Context, r *run) error {
	if len(r.tags) == 0 || len(r.catalog.TagField.Selectors) == 0 {
		return nil
	}
	marker := r.catalog.TagMarker
	if marker == "" {
		marker = "#"
	}
	commit := r.catalog.TagCommitKey
	if commit == "" {
		commit = "Space"
	}
	for _, tag := range r.tags {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.applyTag(ctx, r, marker, commit, tag); err != nil {
			p.logger.Warnf("[%s] tag %q not applied: %v", r.adapter.Key(), tag, err)
		}
	}
	return nil
}

func (p *Pipeline) applyTag(ctx context.Context, r *run, marker, commit, tag string) error {
	if err := r.handle.Click(ctx, r.catalog.TagField); err != nil {
		return err
	}
	if err := r.handle.Press(ctx, "End"); err != nil {
		return err
	}
	if err := r.handle.TypeText(ctx, " "); err != nil {
		return err
	}
	if err := r.handle.TypeText(ctx, marker+tag); err != nil {
		return err
	}
	return r.handle.Press(ctx, commit)
}

func (p *Pipeline) setCover(ctx context.Context, r *run) error {
	if r.hooks.SetCover == nil || r.job.CoverPath == "" {
		return nil
	}
	return r.hooks.SetCover(ctx, r.handle, r.job.CoverPath)
}

func (p *Pipeline) configureSchedule(ctx context.Context, r *run) error {
	if r.hooks.ConfigureSchedule == nil || r.job.ScheduleAt == nil {
		return nil
	}
	return r.hooks.ConfigureSchedule(ctx, r.handle, *r.job.ScheduleAt)
}

func (p *Pipeline) applyPlatformExtras(ctx context.Context, r *run) error {
	if r.hooks.PlatformExtras == nil {
		return nil
	}
	return r.hooks.PlatformExtras(ctx, r.handle)
}

func (p *Pipeline) submit(ctx context.Context, r *run) error {
	if err := r.handle.Click(ctx, r.catalog.Submit); err != nil {
		return err
	}
	if len(r.catalog.SubmitConfirm.Selectors) == 0 {
		return nil
	}
	// The confirmation dialog does not always appear; its absence is fine.
	err := r.handle.Click(ctx, r.catalog.SubmitConfirm)
	var notFound *browser.ElementNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// confirmOutcome requires a positive success signal. A clean submit with no
// URL match is still a failure.
func (p *Pipeline) confirmOutcome(ctx context.Context, r *run) error {
	err := r.handle.WaitURLMatch(ctx, r.adapter.PublishSuccessURLPattern(), p.confirmTimeout())
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrPublishUnconfirmed, err)
}

// refreshCredential re-exports the session state after a confirmed publish
// so token rotation during the run is not lost. Failure here does not fail
// the publish.
func (p *Pipeline) refreshCredential(r *run) {
	state, err := r.handle.ExportState()
	if err != nil {
		p.logger.Warnf("[%s] could not re-export session state: %v", r.adapter.Key(), err)
		return
	}
	if err := p.store.Save(r.adapter.Key(), state); err != nil {
		p.logger.Warnf("[%s] could not refresh stored credential: %v", r.adapter.Key(), err)
	}
}
