package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheus()

	before := testutil.ToFloat64(claimsTotal.WithLabelValues("declined"))
	r.ClaimApproved(2)
	r.ClaimDeclined()
	assert.Equal(t, before+3, testutil.ToFloat64(claimsTotal.WithLabelValues("declined")))

	points := testutil.ToFloat64(rewardPointsTotal)
	r.ClaimCompleted(25)
	assert.Equal(t, points+25, testutil.ToFloat64(rewardPointsTotal))

	scans := testutil.ToFloat64(scansTotal.WithLabelValues("pickup", "rejected"))
	r.Scan("pickup", "rejected")
	assert.Equal(t, scans+1, testutil.ToFloat64(scansTotal.WithLabelValues("pickup", "rejected")))
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	assert.NotPanics(t, func() {
		r.ClaimSubmitted()
		r.Error("approve")
	})
}
