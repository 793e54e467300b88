// Package job defines the wire-level data model shared between the broker
// Exchange and the media-processing core: jobs, parameters, job status, and
// job results.
package job

// Required parameter ids for a media job. A job missing either fails
// initialization with a ParameterError.
const (
	SourcePathParameter      = "source_path"
	DestinationPathParameter = "destination_path"
)

// Job is the immutable unit of work delivered by the broker. Once received,
// a Job's fields never change; job_id is unique within the worker's lifetime
// of active jobs.
type Job struct {
	JobID      uint64      `json:"job_id"`
	Parameters []Parameter `json:"parameters"`
}

// Parameter returns the Parameter with the given id, if present.
func (j Job) Parameter(id string) (Parameter, bool) {
	for _, p := range j.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParameterList implements ParametersContainer.
func (j Job) ParameterList() []Parameter {
	return j.Parameters
}
