// Package metrics exposes exchange lifecycle counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what the services report to.
type Recorder interface {
	ClaimSubmitted()
	ClaimApproved(declinedSiblings int)
	ClaimDeclined()
	ClaimCompleted(points int)
	QRIssued(kind string)
	Scan(action, result string)
	Error(operation string)
}

var (
	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handoff_claims_total",
		Help: "Claim requests by lifecycle step.",
	}, []string{"step"})

	rewardPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handoff_reward_points_total",
		Help: "GreenPoints credited to donors.",
	})

	qrIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handoff_qr_codes_issued_total",
		Help: "QR codes minted, by kind (pair or standalone).",
	}, []string{"kind"})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handoff_partner_scans_total",
		Help: "Partner shop scans by action and result.",
	}, []string{"action", "result"})

	operationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handoff_operation_errors_total",
		Help: "Errors encountered during specific operations.",
	}, []string{"operation"})
)

type prometheusRecorder struct{}

// NewPrometheus returns a Recorder backed by the default registry.
func NewPrometheus() Recorder { return prometheusRecorder{} }

func (prometheusRecorder) ClaimSubmitted() { claimsTotal.WithLabelValues("submitted").Inc() }

func (prometheusRecorder) ClaimApproved(declinedSiblings int) {
	claimsTotal.WithLabelValues("approved").Inc()
	claimsTotal.WithLabelValues("declined").Add(float64(declinedSiblings))
}

func (prometheusRecorder) ClaimDeclined() { claimsTotal.WithLabelValues("declined").Inc() }

func (prometheusRecorder) ClaimCompleted(points int) {
	claimsTotal.WithLabelValues("completed").Inc()
	rewardPointsTotal.Add(float64(points))
}

func (prometheusRecorder) QRIssued(kind string) { qrIssuedTotal.WithLabelValues(kind).Inc() }

func (prometheusRecorder) Scan(action, result string) {
	scansTotal.WithLabelValues(action, result).Inc()
}

func (prometheusRecorder) Error(operation string) {
	operationErrorsTotal.WithLabelValues(operation).Inc()
}

// Noop discards everything.
type Noop struct{}

func (Noop) ClaimSubmitted()     {}
func (Noop) ClaimApproved(int)   {}
func (Noop) ClaimDeclined()      {}
func (Noop) ClaimCompleted(int)  {}
func (Noop) QRIssued(string)     {}
func (Noop) Scan(string, string) {}
func (Noop) Error(string)        {}
