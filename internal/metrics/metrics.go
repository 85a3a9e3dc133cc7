package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"status"}, // success|validation_error|error
	)

	MailSendSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_mail_send_seconds",
			Help:    "Time spent handing a message to the mail relay",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		},
		[]string{"transport", "result"}, // smtp|log , ok|fail
	)

	MailReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_mail_ready",
			Help: "1 when the last relay verification succeeded",
		},
	)
)

var registerOnce sync.Once

// MustRegister registers the collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			SubmissionsTotal,
			MailSendSeconds,
			MailReady,
		)
	})
}
