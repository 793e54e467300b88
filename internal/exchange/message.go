// Package exchange mediates between a broker (or an in-process caller) and
// a Processor: orders flow in one direction, responses flow back.
package exchange

import (
	"github.com/mediajob/worker-sdk/pkg/job"
)

// OrderKind identifies which of the five orders an OrderMessage carries.
type OrderKind int

const (
	OrderInitProcess OrderKind = iota
	OrderStartProcess
	OrderStopProcess
	OrderStatus
	OrderStopWorker
)

func (k OrderKind) String() string {
	switch k {
	case OrderInitProcess:
		return "init_process"
	case OrderStartProcess:
		return "start_process"
	case OrderStopProcess:
		return "stop_process"
	case OrderStatus:
		return "status"
	case OrderStopWorker:
		return "stop_worker"
	default:
		return "unknown"
	}
}

// OrderMessage is one of the five orders a Processor accepts. Job is
// populated for InitProcess, StartProcess and StopProcess; it is the zero
// value for Status and StopWorker. ID correlates an order with the
// responses it produces; exchanges tag it if the caller leaves it empty.
type OrderMessage struct {
	Kind OrderKind
	ID   string
	Job  job.Job
}

// ResponseKind identifies which variant a ResponseMessage carries.
type ResponseKind int

const (
	ResponseInitialized ResponseKind = iota
	ResponseCompleted
	ResponseError
	ResponseFeedback
)

// FeedbackKind distinguishes the two shapes a Feedback response can take.
type FeedbackKind int

const (
	FeedbackProgression FeedbackKind = iota
	FeedbackStatusReport
)

// Progression is a bounded integer progress update for one job.
type Progression struct {
	JobID   uint64
	Percent int
}

// Activity reports whether a worker is currently processing a job.
type Activity string

const (
	ActivityIdle Activity = "idle"
	ActivityBusy Activity = "busy"
)

// StatusReport answers a Status order: worker activity, a snapshot of the
// host system, and the job currently in flight, if any.
type StatusReport struct {
	Activity Activity
	System   SystemSnapshot
	Current  *job.JobResult
}

// SystemSnapshot is a point-in-time resource snapshot of the host running
// the worker. Populated by internal/system.
type SystemSnapshot struct {
	Hostname    string
	CPUPercent  float64
	MemoryUsed  uint64
	MemoryTotal uint64
}

// MessageError carries the JobResult describing why a job ended in Error.
type MessageError struct {
	Result *job.JobResult
}

// ResponseMessage is one of: Initialized(JobResult), Completed(JobResult),
// Error(MessageError), or Feedback(Progression | StatusReport). Exactly one
// of the payload fields is populated, selected by Kind (and, for Feedback,
// by FeedbackKind).
type ResponseMessage struct {
	Kind ResponseKind

	Result *job.JobResult // Initialized, Completed
	Error  *MessageError  // Error

	FeedbackKind FeedbackKind
	Progression  *Progression  // Feedback / Progression
	StatusReport *StatusReport // Feedback / StatusReport
}

// Terminal reports whether this response is the final word on a job:
// Completed or Error. Initialized and Feedback responses are not terminal.
func (r ResponseMessage) Terminal() bool {
	return r.Kind == ResponseCompleted || r.Kind == ResponseError
}

// JobID extracts the job identifier a response pertains to, where one
// applies. Status feedback reports on the worker, not a specific job; its
// second return value is false unless a job is currently in flight.
func (r ResponseMessage) JobID() (uint64, bool) {
	switch r.Kind {
	case ResponseInitialized, ResponseCompleted:
		if r.Result != nil {
			return r.Result.JobID, true
		}
	case ResponseError:
		if r.Error != nil && r.Error.Result != nil {
			return r.Error.Result.JobID, true
		}
	case ResponseFeedback:
		switch r.FeedbackKind {
		case FeedbackProgression:
			if r.Progression != nil {
				return r.Progression.JobID, true
			}
		case FeedbackStatusReport:
			if r.StatusReport != nil && r.StatusReport.Current != nil {
				return r.StatusReport.Current.JobID, true
			}
		}
	}
	return 0, false
}

// NewInitializedResponse builds an Initialized response.
func NewInitializedResponse(result *job.JobResult) ResponseMessage {
	return ResponseMessage{Kind: ResponseInitialized, Result: result}
}

// NewCompletedResponse builds a Completed response.
func NewCompletedResponse(result *job.JobResult) ResponseMessage {
	return ResponseMessage{Kind: ResponseCompleted, Result: result}
}

// NewErrorResponse builds an Error response wrapping result.
func NewErrorResponse(result *job.JobResult) ResponseMessage {
	return ResponseMessage{Kind: ResponseError, Error: &MessageError{Result: result}}
}

// NewProgressionResponse builds a Feedback/Progression response.
func NewProgressionResponse(jobID uint64, percent int) ResponseMessage {
	return ResponseMessage{
		Kind:         ResponseFeedback,
		FeedbackKind: FeedbackProgression,
		Progression:  &Progression{JobID: jobID, Percent: percent},
	}
}

// NewStatusReportResponse builds a Feedback/StatusReport response.
func NewStatusReportResponse(report StatusReport) ResponseMessage {
	return ResponseMessage{
		Kind:         ResponseFeedback,
		FeedbackKind: FeedbackStatusReport,
		StatusReport: &report,
	}
}
