package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerifyArgsFlagsAfterPlatform(t *testing.T) {
	opts, err := parseVerifyArgs([]string{"all", "--parallel"})
	require.NoError(t, err)
	assert.Equal(t, "all", opts.target)
	assert.True(t, opts.parallel)
}

func TestParseVerifyArgsPlatformOnly(t *testing.T) {
	opts, err := parseVerifyArgs([]string{"douyin"})
	require.NoError(t, err)
	assert.Equal(t, "douyin", opts.target)
	assert.False(t, opts.parallel)
}

func TestParseVerifyArgsRejectsMissingPlatform(t *testing.T) {
	_, err := parseVerifyArgs([]string{"--parallel"})
	assert.Error(t, err)

	_, err = parseVerifyArgs(nil)
	assert.Error(t, err)
}

func TestParseVerifyArgsRejectsTrailingArgument(t *testing.T) {
	_, err := parseVerifyArgs([]string{"all", "--parallel", "extra"})
	assert.Error(t, err)
}

func TestParseUploadArgsFlagsAfterPlatform(t *testing.T) {
	opts, err := parseUploadArgs([]string{
		"douyin",
		"--video", "clip.mp4",
		"--title", "morning run",
		"--content", "first light",
		"--tags", "run, outdoors ,",
		"--cover", "cover.png",
		"--schedule", "2026-09-01 08:30",
		"--parallel",
	})
	require.NoError(t, err)
	assert.Equal(t, "douyin", opts.target)
	assert.Equal(t, "clip.mp4", opts.video)
	assert.Equal(t, "morning run", opts.title)
	assert.Equal(t, "first light", opts.content)
	assert.Equal(t, []string{"run", "outdoors"}, opts.tags)
	assert.Equal(t, "cover.png", opts.cover)
	assert.True(t, opts.parallel)

	require.NotNil(t, opts.scheduleAt)
	want := time.Date(2026, 9, 1, 8, 30, 0, 0, time.Local)
	assert.True(t, opts.scheduleAt.Equal(want))
}

func TestParseUploadArgsAutoLoginDefaultsOn(t *testing.T) {
	opts, err := parseUploadArgs([]string{"all", "--video", "clip.mp4"})
	require.NoError(t, err)
	assert.True(t, opts.autoLogin)

	opts, err = parseUploadArgs([]string{"all", "--video", "clip.mp4", "--no-auto-login"})
	require.NoError(t, err)
	assert.False(t, opts.autoLogin)
}

func TestParseUploadArgsRequiresVideo(t *testing.T) {
	_, err := parseUploadArgs([]string{"all", "--parallel"})
	assert.Error(t, err)
}

func TestParseUploadArgsRejectsMissingPlatform(t *testing.T) {
	_, err := parseUploadArgs([]string{"--video", "clip.mp4"})
	assert.Error(t, err)
}

func TestParseUploadArgsRejectsBadSchedule(t *testing.T) {
	_, err := parseUploadArgs([]string{"all", "--video", "clip.mp4", "--schedule", "tomorrow"})
	assert.Error(t, err)
}
