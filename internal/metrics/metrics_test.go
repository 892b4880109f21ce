package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	r := NewRecorder()
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/healthz", "200"))

	r.RecordRequest("GET", "/healthz", 200, 5*time.Millisecond)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordEvaluationOutcomes(t *testing.T) {
	r := NewRecorder()
	yes, no := true, false

	cases := []struct {
		fits    *bool
		err     error
		outcome string
	}{
		{&yes, nil, OutcomeFits},
		{&no, nil, OutcomeNoFit},
		{nil, nil, OutcomeUnknown},
		{&yes, errors.New("boom"), OutcomeError},
	}
	for _, tc := range cases {
		before := testutil.ToFloat64(EvaluationsTotal.WithLabelValues(tc.outcome))
		r.RecordEvaluation(tc.fits, tc.err)
		after := testutil.ToFloat64(EvaluationsTotal.WithLabelValues(tc.outcome))
		if after != before+1 {
			t.Errorf("outcome %s: expected %v, got %v", tc.outcome, before+1, after)
		}
	}
}

func TestRecordExport(t *testing.T) {
	r := NewRecorder()
	before := testutil.ToFloat64(ExportBytes.WithLabelValues("pdf"))

	r.RecordExport("pdf", 2048)

	assert.Equal(t, before+2048, testutil.ToFloat64(ExportBytes.WithLabelValues("pdf")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 2*time.Millisecond)
}
