package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "海边日落 vlog.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o600))
	return path
}

func TestValidateRequiresVideoFile(t *testing.T) {
	job := &Job{}
	assert.Error(t, job.Validate())

	job = &Job{FilePath: filepath.Join(t.TempDir(), "missing.mp4")}
	assert.Error(t, job.Validate())

	job = &Job{FilePath: tempVideo(t)}
	assert.NoError(t, job.Validate())
}

func TestValidateRejectsPastSchedule(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	job := &Job{FilePath: tempVideo(t), ScheduleAt: &past}
	assert.Error(t, job.Validate())

	future := time.Now().Add(time.Hour)
	job = &Job{FilePath: tempVideo(t), ScheduleAt: &future}
	assert.NoError(t, job.Validate())
}

func TestValidateChecksCoverExists(t *testing.T) {
	job := &Job{FilePath: tempVideo(t), CoverPath: filepath.Join(t.TempDir(), "cover.png")}
	assert.Error(t, job.Validate())
}

func TestWorkingTitleFallsBackToFileName(t *testing.T) {
	job := &Job{FilePath: "/videos/海边日落 vlog.mp4"}
	assert.Equal(t, "海边日落 vlog", job.workingTitle(0))
}

func TestWorkingTitleTruncatesByRunes(t *testing.T) {
	job := &Job{FilePath: "clip.mp4", Title: "春日限定美食探店合集"}
	assert.Equal(t, "春日限定美", job.workingTitle(5))
}

func TestWorkingTitleCollapsesWhitespace(t *testing.T) {
	job := &Job{FilePath: "clip.mp4", Title: "  new\tyear \n recap  "}
	assert.Equal(t, "new year recap", job.workingTitle(0))
}

func TestNormalizedTagsStripMarkersAndDuplicates(t *testing.T) {
	job := &Job{Tags: []string{"#旅行", "美食", "旅行", "＃美食", "  ", "#", "vlog"}}
	assert.Equal(t, []string{"旅行", "美食", "vlog"}, job.normalizedTags())
}

func TestNormalizedTagsEmpty(t *testing.T) {
	job := &Job{}
	assert.Empty(t, job.normalizedTags())
}
