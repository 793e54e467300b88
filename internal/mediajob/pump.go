// Package mediajob couples a mediaio.Source to a user-supplied per-frame
// callback and a mediaio.Output, and bundles the per-job state a Processor
// owns exclusively on its worker thread.
package mediajob

import (
	"context"
	"math"

	"github.com/mediajob/worker-sdk/internal/mediaio"
	"github.com/mediajob/worker-sdk/pkg/job"
)

// Callback is the user-supplied per-frame processing function. It returns
// an opaque artifact to accumulate in Output, or an error that aborts the
// pump without flushing.
type Callback func(ctx context.Context, jobID uint64, streamIndex int, frame mediaio.Frame) (mediaio.Artifact, error)

// ProgressFunc receives a strictly-increasing integer progress percent for
// a job, in [1, 100].
type ProgressFunc func(jobID uint64, percent int)

// FramePump drives Source -> Callback -> Output for one job, computing
// integer progress percent and emitting it only on change.
type FramePump struct {
	jobID      uint64
	source     mediaio.Source
	output     *mediaio.Output
	callback   Callback
	onProgress ProgressFunc
}

// NewFramePump builds a FramePump for jobID.
func NewFramePump(jobID uint64, source mediaio.Source, output *mediaio.Output, callback Callback, onProgress ProgressFunc) *FramePump {
	return &FramePump{
		jobID:      jobID,
		source:     source,
		output:     output,
		callback:   callback,
		onProgress: onProgress,
	}
}

// Run drives the pump to completion, to a user callback error, or to a
// stop request observed between frames. stopRequested is polled
// non-blockingly before each frame is pulled from Source.
//
// On EndOfStream, Output is flushed exactly once and a Completed JobResult
// is returned. On any error path (user callback, decode, flush, or a stop
// request), no flush occurs and a *job.ProcessingError is returned instead.
func (p *FramePump) Run(ctx context.Context, stopRequested func() bool) (*job.JobResult, error) {
	totalDuration, hasDuration := p.source.Duration()
	processedFrames := 0
	lastReportedPercent := 0

	for {
		if stopRequested() {
			return nil, &job.ProcessingError{
				Result: job.NewJobResult(p.jobID).WithStatus(job.StatusError).WithMessage("stopped"),
			}
		}

		result, err := p.source.NextFrame()
		if err != nil {
			return nil, job.NewProcessingError(p.jobID, err.Error())
		}

		switch result.Kind {
		case mediaio.DecodeFrame:
			processedFrames++

			artifact, err := p.callback(ctx, p.jobID, result.Frame.StreamIndex, result.Frame)
			if err != nil {
				return nil, job.NewProcessingError(p.jobID, err.Error())
			}
			p.output.Push(artifact)

			if result.Frame.StreamIndex == 0 && hasDuration {
				percent := computePercent(processedFrames, totalDuration)
				if percent > lastReportedPercent {
					p.onProgress(p.jobID, percent)
					lastReportedPercent = percent
				}
			}

		case mediaio.DecodeNothing:
			continue

		case mediaio.DecodeEndOfStream:
			if err := p.output.Flush(); err != nil {
				return nil, job.NewProcessingError(p.jobID, err.Error())
			}
			return job.NewJobResult(p.jobID).WithStatus(job.StatusCompleted), nil
		}
	}
}

// computePercent implements percent = min(100, floor(100 * processedFrames / totalDuration)).
func computePercent(processedFrames int, totalDuration float64) int {
	if totalDuration <= 0 {
		return 100
	}
	percent := int(math.Floor(100 * float64(processedFrames) / totalDuration))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}
