// Package main is the spreado command line interface: interactive login,
// credential verification and video publishing across platforms, with
// optional parallel fan-out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/BadKid90s/Spreado/pkg/auth"
	"github.com/BadKid90s/Spreado/pkg/browser"
	"github.com/BadKid90s/Spreado/pkg/config"
	"github.com/BadKid90s/Spreado/pkg/credential"
	"github.com/BadKid90s/Spreado/pkg/logging"
	"github.com/BadKid90s/Spreado/pkg/platform"
	"github.com/BadKid90s/Spreado/pkg/platform/douyin"
	"github.com/BadKid90s/Spreado/pkg/platform/kuaishou"
	"github.com/BadKid90s/Spreado/pkg/platform/tencent"
	"github.com/BadKid90s/Spreado/pkg/platform/xiaohongshu"
	"github.com/BadKid90s/Spreado/pkg/publish"
)

const version = "0.1.0"

const scheduleLayout = "2006-01-02 15:04"

func usage() {
	fmt.Fprintf(os.Stderr, `spreado v%s - publish videos to multiple platforms through the browser

Usage:
  spreado login <platform>
  spreado verify <platform|all> [--parallel]
  spreado upload <platform|all> --video <path> [--title t] [--content c]
          [--tags a,b] [--cover path] [--schedule "%s"] [--parallel]
          [--no-auto-login]

Platforms: douyin, kuaishou, tencent, xiaohongshu
`, version, scheduleLayout)
}

// app carries the wired-up core shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	runtime  *browser.Runtime
	store    *credential.Store
	registry *platform.Registry
	flow     *auth.Flow
	pipeline *publish.Pipeline
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewLogger("cli")
	if err != nil {
		return nil, err
	}

	runtime := browser.NewRuntime()
	if err := runtime.Start(); err != nil {
		logger.Close()
		return nil, err
	}

	registry := platform.NewRegistry()
	for _, a := range []platform.Adapter{douyin.New(), kuaishou.New(), tencent.New(), xiaohongshu.New()} {
		if err := registry.Register(a); err != nil {
			runtime.Stop()
			logger.Close()
			return nil, err
		}
	}

	store := credential.NewStore(cfg.CookieDir)
	session := browser.SessionOptions{
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
		ActionTimeout:     cfg.ActionTimeout,
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		runtime:  runtime,
		store:    store,
		registry: registry,
		flow: auth.NewFlow(runtime, store, logger, auth.Options{
			LoginTimeout: cfg.LoginTimeout,
			Session:      session,
		}),
		pipeline: publish.NewPipeline(runtime, store, logger, publish.Options{
			Session:               session,
			MediaTimeout:          cfg.MediaTimeout,
			ProceedOnMediaTimeout: cfg.ProceedOnMediaTimeout,
		}),
	}, nil
}

func (a *app) close() {
	if err := a.runtime.Stop(); err != nil {
		a.logger.Warnf("browser runtime shutdown: %v", err)
	}
	a.logger.Close()
}

// adaptersFor resolves a platform argument, where "all" selects every
// registered platform.
func (a *app) adaptersFor(arg string) ([]platform.Adapter, error) {
	if arg == "all" {
		keys := a.registry.Keys()
		adapters := make([]platform.Adapter, 0, len(keys))
		for _, key := range keys {
			adapter, err := a.registry.Get(key)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, adapter)
		}
		return adapters, nil
	}
	adapter, err := a.registry.Get(arg)
	if err != nil {
		return nil, err
	}
	return []platform.Adapter{adapter}, nil
}

// forEach runs one job per adapter, sequentially or fanned out. Every job
// owns its own browser session; failures are collected, not short-circuited.
func (a *app) forEach(ctx context.Context, adapters []platform.Adapter, parallel bool, job func(context.Context, platform.Adapter) error) error {
	if !parallel || len(adapters) == 1 {
		var failed []string
		for _, adapter := range adapters {
			if err := job(ctx, adapter); err != nil {
				a.logger.Errorf("%s: %v", adapter.Key(), err)
				failed = append(failed, adapter.Key())
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("failed for: %s", strings.Join(failed, ", "))
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range adapters {
		adapter := adapter
		g.Go(func() error {
			if err := job(gctx, adapter); err != nil {
				a.logger.Errorf("%s: %v", adapter.Key(), err)
				return fmt.Errorf("%s: %w", adapter.Key(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func runLogin(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: spreado login <platform>")
	}
	adapter, err := a.registry.Get(args[0])
	if err != nil {
		return err
	}
	if err := a.flow.Login(ctx, adapter); err != nil {
		return err
	}
	fmt.Printf("login for %s succeeded\n", adapter.Key())
	return nil
}

// verifyArgs is the parsed form of `spreado verify <platform|all> [flags]`.
type verifyArgs struct {
	target   string
	parallel bool
}

// parseVerifyArgs takes the platform from args[0] before handing the rest to
// the flag package, which stops at the first non-flag argument.
func parseVerifyArgs(args []string) (verifyArgs, error) {
	var opts verifyArgs
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return opts, fmt.Errorf("usage: spreado verify <platform|all> [--parallel]")
	}
	opts.target = args[0]

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.BoolVar(&opts.parallel, "parallel", false, "verify platforms concurrently")
	if err := fs.Parse(args[1:]); err != nil {
		return opts, err
	}
	if fs.NArg() != 0 {
		return opts, fmt.Errorf("usage: spreado verify <platform|all> [--parallel]")
	}
	return opts, nil
}

func runVerify(ctx context.Context, a *app, args []string) error {
	opts, err := parseVerifyArgs(args)
	if err != nil {
		return err
	}
	adapters, err := a.adaptersFor(opts.target)
	if err != nil {
		return err
	}

	return a.forEach(ctx, adapters, opts.parallel, func(ctx context.Context, adapter platform.Adapter) error {
		err := a.flow.Verify(ctx, adapter)
		switch {
		case err == nil:
			fmt.Printf("%s: credential valid\n", adapter.Key())
			return nil
		case errors.Is(err, auth.ErrCredentialMissing):
			fmt.Printf("%s: no credential, run `spreado login %s`\n", adapter.Key(), adapter.Key())
			return err
		case errors.Is(err, auth.ErrCredentialInvalid):
			fmt.Printf("%s: credential expired, run `spreado login %s`\n", adapter.Key(), adapter.Key())
			return err
		default:
			return err
		}
	})
}

// uploadArgs is the parsed form of `spreado upload <platform|all> [flags]`.
type uploadArgs struct {
	target     string
	video      string
	title      string
	content    string
	tags       []string
	cover      string
	scheduleAt *time.Time
	parallel   bool
	autoLogin  bool
}

func parseUploadArgs(args []string) (uploadArgs, error) {
	usageErr := fmt.Errorf("usage: spreado upload <platform|all> --video <path> [flags]")
	var opts uploadArgs
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return opts, usageErr
	}
	opts.target = args[0]

	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.StringVar(&opts.video, "video", "", "video file to upload (required)")
	fs.StringVar(&opts.title, "title", "", "work title; defaults to the video file name")
	fs.StringVar(&opts.content, "content", "", "description text")
	fs.StringVar(&opts.cover, "cover", "", "cover image file")
	tags := fs.String("tags", "", "comma separated tags")
	schedule := fs.String("schedule", "", "scheduled publish time, \""+scheduleLayout+"\"")
	fs.BoolVar(&opts.parallel, "parallel", false, "upload to platforms concurrently")
	noAutoLogin := fs.Bool("no-auto-login", false, "fail on an expired credential instead of opening a login window")
	if err := fs.Parse(args[1:]); err != nil {
		return opts, err
	}
	if fs.NArg() != 0 || opts.video == "" {
		return opts, usageErr
	}
	opts.autoLogin = !*noAutoLogin

	if *schedule != "" {
		at, err := time.ParseInLocation(scheduleLayout, *schedule, time.Local)
		if err != nil {
			return opts, fmt.Errorf("invalid --schedule value %q: %w", *schedule, err)
		}
		opts.scheduleAt = &at
	}

	for _, tag := range strings.Split(*tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			opts.tags = append(opts.tags, tag)
		}
	}
	return opts, nil
}

func runUpload(ctx context.Context, a *app, args []string) error {
	opts, err := parseUploadArgs(args)
	if err != nil {
		return err
	}
	adapters, err := a.adaptersFor(opts.target)
	if err != nil {
		return err
	}

	// Renewal opens an interactive login window, which cannot be arbitrated
	// when several platforms run at once.
	renew := opts.autoLogin && !opts.parallel

	return a.forEach(ctx, adapters, opts.parallel, func(ctx context.Context, adapter platform.Adapter) error {
		if err := a.flow.Ensure(ctx, adapter, renew); err != nil {
			return err
		}
		job := &publish.Job{
			PlatformKey: adapter.Key(),
			FilePath:    opts.video,
			Title:       opts.title,
			Description: opts.content,
			Tags:        opts.tags,
			CoverPath:   opts.cover,
			ScheduleAt:  opts.scheduleAt,
		}
		if err := a.pipeline.Publish(ctx, adapter, job); err != nil {
			return err
		}
		fmt.Printf("%s: publish confirmed\n", adapter.Key())
		return nil
	})
}

func main() {
	// a .env file is optional; absence is the normal case
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version", "--version", "-v":
		fmt.Printf("spreado v%s\n", version)
		return
	case "help", "--help", "-h":
		usage()
		return
	}

	cfgPath, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	var runErr error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "login":
		runErr = runLogin(ctx, a, args)
	case "verify":
		runErr = runVerify(ctx, a, args)
	case "upload":
		runErr = runUpload(ctx, a, args)
	default:
		usage()
		runErr = fmt.Errorf("unknown command %q", cmd)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		a.close()
		os.Exit(1)
	}
}
