package job

import (
	"encoding/json"
	"fmt"
)

// ParametersContainer is implemented by any type carrying a list of
// Parameters that the typed accessors below can resolve against.
type ParametersContainer interface {
	ParameterList() []Parameter
}

// JobResult is the outcome record for a job: its final status, any
// attached result parameters (message, JSON blobs, ...), the destination
// paths it wrote, and how long it took to run.
type JobResult struct {
	JobID             uint64      `json:"job_id"`
	Status            JobStatus   `json:"status"`
	Parameters        []Parameter `json:"parameters"`
	DestinationPaths  []string    `json:"destination_paths"`
	ExecutionDuration float64     `json:"execution_duration"`
}

// NewJobResult constructs an empty JobResult for the given job id, status
// Unknown.
func NewJobResult(jobID uint64) *JobResult {
	return &JobResult{
		JobID:            jobID,
		Status:           StatusUnknown,
		Parameters:       []Parameter{},
		DestinationPaths: []string{},
	}
}

// JobResultFromJob constructs a JobResult from a Job: parameters empty,
// status Unknown.
func JobResultFromJob(j Job) *JobResult {
	return NewJobResult(j.JobID)
}

// ParameterList implements ParametersContainer.
func (r *JobResult) ParameterList() []Parameter {
	return r.Parameters
}

// WithStatus sets the result's status and returns the receiver for chaining.
func (r *JobResult) WithStatus(status JobStatus) *JobResult {
	r.Status = status
	return r
}

// WithMessage attaches or overwrites a string "message" parameter.
func (r *JobResult) WithMessage(message string) *JobResult {
	r.setStringParameter("message", TypeString, message)
	return r
}

// WithJSON attaches or overwrites a TypeJSON parameter under the given id,
// marshaling value to JSON.
func (r *JobResult) WithJSON(id string, value any) *JobResult {
	raw, err := json.Marshal(value)
	if err != nil {
		return r.WithMessage(fmt.Sprintf("encoding %s: %v", id, err))
	}
	r.setParameter(id, TypeJSON, raw)
	return r
}

// WithError sets status=Error and attaches err's message, returning the
// receiver for chaining.
func (r *JobResult) WithError(err error) *JobResult {
	r.Status = StatusError
	return r.WithMessage(err.Error())
}

// WithDestinationPath appends a destination path written by this job.
func (r *JobResult) WithDestinationPath(path string) *JobResult {
	r.DestinationPaths = append(r.DestinationPaths, path)
	return r
}

func (r *JobResult) setStringParameter(id string, t ParameterType, value string) {
	raw, _ := json.Marshal(value)
	r.setParameter(id, t, raw)
}

// setParameter overwrites the parameter matching id (repeated calls with the
// same id replace the previous value, per with_message's overwrite rule),
// or appends a new one.
func (r *JobResult) setParameter(id string, t ParameterType, raw json.RawMessage) {
	for i := range r.Parameters {
		if r.Parameters[i].ID == id {
			r.Parameters[i].Type = t
			r.Parameters[i].Value = raw
			return
		}
	}
	r.Parameters = append(r.Parameters, Parameter{ID: id, Type: t, Value: raw})
}

// GetParameter resolves the effective value (value ?? default) of the
// parameter with the given id against c, decoding it into T.
func GetParameter[T any](c ParametersContainer, id string) (T, error) {
	var zero T

	var found *Parameter
	for _, p := range c.ParameterList() {
		if p.ID == id {
			found = &p
			break
		}
	}
	if found == nil {
		return zero, NewMissingParameterError(id)
	}

	raw := found.effective()
	if raw == nil {
		return zero, NewMissingParameterError(id)
	}

	if err := json.Unmarshal(raw, &zero); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return zero, &ParameterError{ID: id, Kind: ParameterWrongType, Err: err}
		}
		return zero, &ParameterError{ID: id, Kind: ParameterDecodeFailed, Err: err}
	}
	return zero, nil
}

// GetParametersAsMap stringifies every parameter's effective value.
// Booleans become "true"/"false", integers become decimal strings, and
// arrays/objects are JSON-encoded. Parameters with no effective value are
// omitted.
func GetParametersAsMap(c ParametersContainer) map[string]string {
	out := make(map[string]string)
	for _, p := range c.ParameterList() {
		raw := p.effective()
		if raw == nil {
			continue
		}
		out[p.ID] = stringifyRaw(p.Type, raw)
	}
	return out
}

func stringifyRaw(t ParameterType, raw json.RawMessage) string {
	switch t {
	case TypeString, TypeCredential:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			if b {
				return "true"
			}
			return "false"
		}
	case TypeInteger:
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return fmt.Sprintf("%d", n)
		}
	}
	// Arrays, json, requirements, and unrecognized/malformed values fall
	// back to their raw JSON encoding.
	return string(raw)
}
