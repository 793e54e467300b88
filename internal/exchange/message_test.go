package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediajob/worker-sdk/pkg/job"
)

func TestResponseMessage_Terminal(t *testing.T) {
	cases := []struct {
		name string
		resp ResponseMessage
		want bool
	}{
		{"initialized", NewInitializedResponse(job.NewJobResult(1)), false},
		{"completed", NewCompletedResponse(job.NewJobResult(1)), true},
		{"error", NewErrorResponse(job.NewJobResult(1)), true},
		{"progression", NewProgressionResponse(1, 50), false},
		{"status", NewStatusReportResponse(StatusReport{Activity: ActivityIdle}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.resp.Terminal())
		})
	}
}

func TestResponseMessage_JobID(t *testing.T) {
	resp := NewProgressionResponse(99, 10)
	jobID, ok := resp.JobID()
	assert.True(t, ok)
	assert.Equal(t, uint64(99), jobID)

	statusOnly := NewStatusReportResponse(StatusReport{Activity: ActivityIdle})
	_, ok = statusOnly.JobID()
	assert.False(t, ok)

	statusWithJob := NewStatusReportResponse(StatusReport{
		Activity: ActivityBusy,
		Current:  job.NewJobResult(5),
	})
	jobID, ok = statusWithJob.JobID()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), jobID)
}

func TestOrderKind_String(t *testing.T) {
	assert.Equal(t, "init_process", OrderInitProcess.String())
	assert.Equal(t, "stop_worker", OrderStopWorker.String())
	assert.Equal(t, "unknown", OrderKind(99).String())
}
