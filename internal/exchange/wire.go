package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/mediajob/worker-sdk/pkg/job"
)

// wireProgression is the JSON shape published on the job_progression routing
// key.
type wireProgression struct {
	JobID   uint64 `json:"job_id"`
	Percent int    `json:"percent"`
}

// wireStatusReport is the JSON shape published on the worker_status routing
// key.
type wireStatusReport struct {
	Activity    Activity       `json:"activity"`
	Hostname    string         `json:"hostname"`
	CPUPercent  float64        `json:"cpu_percent"`
	MemoryUsed  uint64         `json:"memory_used"`
	MemoryTotal uint64         `json:"memory_total"`
	Current     *job.JobResult `json:"current_job,omitempty"`
}

// encodeResponse marshals r to the JSON body appropriate for its routing
// key, returning that routing key alongside the encoded body.
func encodeResponse(r ResponseMessage) (routingKey string, body []byte, err error) {
	switch r.Kind {
	case ResponseInitialized:
		body, err = json.Marshal(r.Result)
		return "worker_initialized", body, err
	case ResponseCompleted:
		body, err = json.Marshal(r.Result)
		return "job_completed", body, err
	case ResponseError:
		var result *job.JobResult
		if r.Error != nil {
			result = r.Error.Result
		}
		body, err = json.Marshal(result)
		return "job_error", body, err
	case ResponseFeedback:
		switch r.FeedbackKind {
		case FeedbackProgression:
			body, err = json.Marshal(wireProgression{JobID: r.Progression.JobID, Percent: r.Progression.Percent})
			return "job_progression", body, err
		case FeedbackStatusReport:
			sr := r.StatusReport
			body, err = json.Marshal(wireStatusReport{
				Activity:    sr.Activity,
				Hostname:    sr.System.Hostname,
				CPUPercent:  sr.System.CPUPercent,
				MemoryUsed:  sr.System.MemoryUsed,
				MemoryTotal: sr.System.MemoryTotal,
				Current:     sr.Current,
			})
			return "worker_status", body, err
		}
	}
	return "", nil, fmt.Errorf("exchange: unencodable response kind %d", r.Kind)
}

// decodeOrder parses an incoming delivery body into the Job payload for
// kind. Status and StopWorker orders carry no body.
func decodeOrder(kind OrderKind, body []byte) (OrderMessage, error) {
	if kind == OrderStatus || kind == OrderStopWorker {
		return OrderMessage{Kind: kind}, nil
	}
	var j job.Job
	if len(body) > 0 {
		if err := json.Unmarshal(body, &j); err != nil {
			return OrderMessage{}, fmt.Errorf("exchange: decoding job: %w", err)
		}
	}
	return OrderMessage{Kind: kind, Job: j}, nil
}

// orderKindFromType maps an AMQP message "type" property to an OrderKind.
// An empty or unrecognized type defaults to StartProcess, matching the
// common case of a broker that only ever sends one message per job.
func orderKindFromType(t string) OrderKind {
	switch t {
	case "init_process":
		return OrderInitProcess
	case "start_process":
		return OrderStartProcess
	case "stop_process":
		return OrderStopProcess
	case "status":
		return OrderStatus
	case "stop_worker":
		return OrderStopWorker
	default:
		return OrderStartProcess
	}
}
