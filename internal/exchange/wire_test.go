package exchange

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediajob/worker-sdk/pkg/job"
)

func TestEncodeResponse_RoutingKeys(t *testing.T) {
	cases := []struct {
		name string
		resp ResponseMessage
		key  string
	}{
		{"initialized", NewInitializedResponse(job.NewJobResult(1)), "worker_initialized"},
		{"completed", NewCompletedResponse(job.NewJobResult(1)), "job_completed"},
		{"error", NewErrorResponse(job.NewJobResult(1)), "job_error"},
		{"progression", NewProgressionResponse(1, 30), "job_progression"},
		{"status", NewStatusReportResponse(StatusReport{Activity: ActivityIdle}), "worker_status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, body, err := encodeResponse(tc.resp)
			require.NoError(t, err)
			assert.Equal(t, tc.key, key)
			assert.NotEmpty(t, body)
		})
	}
}

func TestEncodeResponse_ProgressionBody(t *testing.T) {
	_, body, err := encodeResponse(NewProgressionResponse(17, 42))
	require.NoError(t, err)

	var decoded wireProgression
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, uint64(17), decoded.JobID)
	assert.Equal(t, 42, decoded.Percent)
}

func TestDecodeOrder_StatusHasNoBody(t *testing.T) {
	order, err := decodeOrder(OrderStatus, nil)
	require.NoError(t, err)
	assert.Equal(t, OrderStatus, order.Kind)
	assert.Zero(t, order.Job.JobID)
}

func TestDecodeOrder_StartProcessParsesJob(t *testing.T) {
	body, err := json.Marshal(job.Job{JobID: 123})
	require.NoError(t, err)

	order, err := decodeOrder(OrderStartProcess, body)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), order.Job.JobID)
}

func TestDecodeOrder_MalformedBodyErrors(t *testing.T) {
	_, err := decodeOrder(OrderStartProcess, []byte("not json"))
	require.Error(t, err)
}

func TestOrderKindFromType(t *testing.T) {
	assert.Equal(t, OrderInitProcess, orderKindFromType("init_process"))
	assert.Equal(t, OrderStopWorker, orderKindFromType("stop_worker"))
	assert.Equal(t, OrderStartProcess, orderKindFromType(""))
	assert.Equal(t, OrderStartProcess, orderKindFromType("bogus"))
}
