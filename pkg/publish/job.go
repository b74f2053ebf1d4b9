// Package publish runs the staged upload pipeline against one platform: it
// opens an authenticated headless session, walks a fixed stage sequence and
// confirms the outcome through the platform's success URL. Stage order is
// strict and the first failure aborts the run.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Job is one publish request. It is read-only for the lifetime of a
// pipeline run; stages work on values derived from it, never on the job
// itself.
type Job struct {
	// PlatformKey selects the target platform adapter
	PlatformKey string

	// FilePath is the video to upload
	FilePath string

	// Title of the work; empty falls back to the video's file name
	Title string

	// Description text, may be empty
	Description string

	// Tags to attach; duplicates collapse, leading markers are stripped
	Tags []string

	// CoverPath is an optional cover image
	CoverPath string

	// ScheduleAt switches the platform to scheduled publishing when set
	ScheduleAt *time.Time
}

// Validate checks the job before any browser work starts.
func (j *Job) Validate() error {
	if j.FilePath == "" {
		return fmt.Errorf("publish: job has no video file")
	}
	if _, err := os.Stat(j.FilePath); err != nil {
		return fmt.Errorf("publish: video file: %w", err)
	}
	if j.CoverPath != "" {
		if _, err := os.Stat(j.CoverPath); err != nil {
			return fmt.Errorf("publish: cover image: %w", err)
		}
	}
	if j.ScheduleAt != nil && j.ScheduleAt.Before(time.Now()) {
		return fmt.Errorf("publish: scheduled time %s is in the past", j.ScheduleAt.Format(time.RFC3339))
	}
	return nil
}

// workingTitle derives the title a stage actually types: the explicit title
// or the video file's base name, sanitized and truncated to limit runes
// when limit is positive.
func (j *Job) workingTitle(limit int) string {
	title := j.Title
	if title == "" {
		base := filepath.Base(j.FilePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	title = sanitizeTitle(title)
	if limit > 0 {
		if runes := []rune(title); len(runes) > limit {
			title = string(runes[:limit])
		}
	}
	return title
}

// normalizedTags strips leading tag markers, drops empties and collapses
// duplicates while preserving first-occurrence order.
func (j *Job) normalizedTags() []string {
	seen := make(map[string]struct{}, len(j.Tags))
	out := make([]string, 0, len(j.Tags))
	for _, tag := range j.Tags {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimLeft(tag, "#＃")
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// sanitizeTitle replaces control characters with spaces and collapses runs
// of whitespace, so a file-name-derived title types cleanly.
func sanitizeTitle(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
