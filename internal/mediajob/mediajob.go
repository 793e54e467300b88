package mediajob

import (
	"context"

	"github.com/mediajob/worker-sdk/internal/mediaio"
	"github.com/mediajob/worker-sdk/pkg/job"
)

// MediaJob bundles the per-job state owned exclusively by the Processor's
// worker thread: the job's parameters, its Source/Output pair, its
// FramePump, and its current status. No other thread may observe a
// MediaJob's internals.
type MediaJob struct {
	Job    job.Job
	Status job.JobStatus

	Source mediaio.Source
	Output *mediaio.Output
	Pump   *FramePump
}

// NewMediaJob opens Source and Output for j and wires a FramePump between
// them, callback, and onProgress. Returns a *job.ProcessingError if either
// fails to open, with current status left at Unknown (initialization
// errors do not mutate any prior MediaJob).
func NewMediaJob(ctx context.Context, j job.Job, open mediaio.Opener, callback Callback, onProgress ProgressFunc) (*MediaJob, error) {
	sourceURL, err := job.GetParameter[string](j, job.SourcePathParameter)
	if err != nil {
		return nil, job.NewProcessingError(j.JobID, err.Error())
	}
	destURL, err := job.GetParameter[string](j, job.DestinationPathParameter)
	if err != nil {
		return nil, job.NewProcessingError(j.JobID, err.Error())
	}

	if err := job.CheckRequirements(j); err != nil {
		return nil, job.NewProcessingError(j.JobID, err.Error())
	}

	src, err := open(ctx, sourceURL)
	if err != nil {
		return nil, job.NewProcessingError(j.JobID, err.Error())
	}

	out, err := mediaio.NewOutput(destURL)
	if err != nil {
		src.Close()
		return nil, job.NewProcessingError(j.JobID, err.Error())
	}

	mj := &MediaJob{
		Job:    j,
		Status: job.StatusInitialized,
		Source: src,
		Output: out,
	}
	mj.Pump = NewFramePump(j.JobID, src, out, callback, onProgress)
	return mj, nil
}

// Close releases the MediaJob's Source.
func (mj *MediaJob) Close() error {
	if mj.Source != nil {
		return mj.Source.Close()
	}
	return nil
}
