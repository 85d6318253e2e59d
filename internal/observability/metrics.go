package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callog_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callog_push_dispatch_total", Help: "Call notification dispatch outcomes"},
		[]string{"transport", "result"},
	)
	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "callog_push_send_latency_seconds", Help: "Push network submit latency"},
		[]string{"transport"},
	)
	Expirations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callog_notification_expired_total", Help: "Expiry sweeps by outcome"},
		[]string{"result"},
	)
	SweptRecords = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "callog_notification_swept_total", Help: "Old notification records deleted"},
	)
	Transcriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callog_transcription_total", Help: "Transcription outcomes"},
		[]string{"provider", "result"},
	)
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "callog_rtc_token_total", Help: "RTC credentials issued"},
		[]string{"signed"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, Dispatches, DispatchLatency, Expirations, SweptRecords, Transcriptions, TokensIssued)
}
