package publish

import (
	"errors"
	"fmt"
	"time"
)

// Stage names in pipeline order.
const (
	StageOpenTargetSurface   = "OpenTargetSurface"
	StageAttachMedia         = "AttachMedia"
	StageAwaitMediaProcessed = "AwaitMediaProcessed"
	StageFillTitle           = "FillTitle"
	StageFillDescription     = "FillDescription"
	StageApplyTags           = "ApplyTags"
	StageSetCover            = "SetCover"
	StageConfigureSchedule   = "ConfigureSchedule"
	StageApplyPlatformExtras = "ApplyPlatformExtras"
	StageSubmit              = "Submit"
	StageConfirmOutcome      = "ConfirmOutcome"
)

// ErrPublishUnconfirmed means the submit action ran but no positive success
// signal was observed. Absence of an error is never treated as success.
var ErrPublishUnconfirmed = errors.New("publish: outcome not confirmed")

// StageError identifies the first pipeline stage that failed and carries
// its cause. The remaining stages never ran.
type StageError struct {
	Platform string
	Stage    string
	Cause    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("publish: %s stage %s failed: %v", e.Platform, e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// MediaProcessingTimeoutError reports that none of the platform's
// media-ready signals appeared before the ceiling. Whether this aborts the
// run depends on the pipeline's proceed-on-timeout setting.
type MediaProcessingTimeoutError struct {
	Timeout time.Duration
}

func (e *MediaProcessingTimeoutError) Error() string {
	return fmt.Sprintf("publish: no media-processed signal within %s", e.Timeout)
}
