package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCycle(t *testing.T) {
	CyclesTotal.Reset()

	RecordCycle(false, true, 250*time.Millisecond)
	RecordCycle(true, true, 100*time.Millisecond)
	RecordCycle(true, false, 50*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(CyclesTotal.WithLabelValues("scheduled", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CyclesTotal.WithLabelValues("manual", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CyclesTotal.WithLabelValues("manual", "failure")))
}

func TestRecordScoutExecution(t *testing.T) {
	ScoutExecutions.Reset()

	RecordScoutExecution("succeeded")
	RecordScoutExecution("succeeded")
	RecordScoutExecution("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(ScoutExecutions.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ScoutExecutions.WithLabelValues("failed")))
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(ExecutionsReconciled)
	RecordReconciled(2)
	assert.Equal(t, before+2, testutil.ToFloat64(ExecutionsReconciled))

	before = testutil.ToFloat64(ScoutsDeactivated)
	RecordDeactivated(3)
	assert.Equal(t, before+3, testutil.ToFloat64(ScoutsDeactivated))
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/api/cycles", "200", 30*time.Millisecond)
	RecordHTTPRequest("POST", "/api/cycles", "200", 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/cycles", "200")))
}
