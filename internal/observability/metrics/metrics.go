// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listing_intake"

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	// Update metrics
	UpdatesTotal    *prometheus.CounterVec
	UpdatesActive   prometheus.Gauge
	HandlerPanics   prometheus.Counter
	HandlerDuration *prometheus.HistogramVec
	CommandsTotal   *prometheus.CounterVec
	RepliesFailed   prometheus.Counter

	// Sheet metrics
	SheetsActive  prometheus.Gauge
	SheetsCreated prometheus.Counter
	SheetResets   prometheus.Counter

	// Voice pipeline metrics
	VoiceJobs          *prometheus.CounterVec
	VoiceJobDuration   prometheus.Histogram
	AudioBytesReceived prometheus.Counter
	TempFilesOpen      prometheus.Gauge

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance, registered with the default registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Update metrics
		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total number of chat updates received",
		}, []string{"kind"}),
		UpdatesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updates_active",
			Help:      "Number of chat updates currently being handled",
		}),
		HandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Total number of recovered handler panics",
		}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent handling a chat update",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands received",
		}, []string{"command"}),
		RepliesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_failed_total",
			Help:      "Total number of replies that could not be sent",
		}),

		// Sheet metrics
		SheetsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sheets_active",
			Help:      "Number of conversations holding a sheet",
		}),
		SheetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_created_total",
			Help:      "Total number of sheets created on first contact",
		}),
		SheetResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_resets_total",
			Help:      "Total number of sheet resets",
		}),

		// Voice pipeline metrics
		VoiceJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_jobs_total",
			Help:      "Total number of voice transcription jobs by outcome",
		}, []string{"outcome"}),
		VoiceJobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_job_duration_seconds",
			Help:      "End-to-end duration of voice transcription jobs",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes downloaded",
		}),
		TempFilesOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temp_files_open",
			Help:      "Number of temporary audio files currently on disk",
		}),

		// STT metrics
		STTLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		STTErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "error_type"}),

		// Kafka publish metrics
		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// gRPC metrics
		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC requests by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordUpdateStart records a chat update being picked up.
func (m *Metrics) RecordUpdateStart(kind string) {
	m.UpdatesTotal.WithLabelValues(kind).Inc()
	m.UpdatesActive.Inc()
}

// RecordUpdateEnd records a chat update finishing.
func (m *Metrics) RecordUpdateEnd(kind string, durationSeconds float64) {
	m.UpdatesActive.Dec()
	m.HandlerDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordPanic records a recovered handler panic.
func (m *Metrics) RecordPanic() {
	m.HandlerPanics.Inc()
}

// RecordCommand records a command invocation.
func (m *Metrics) RecordCommand(command string) {
	m.CommandsTotal.WithLabelValues(command).Inc()
}

// RecordReplyFailed records a reply that could not be delivered.
func (m *Metrics) RecordReplyFailed() {
	m.RepliesFailed.Inc()
}

// RecordSheetCreated records a sheet created on first contact.
func (m *Metrics) RecordSheetCreated(active int) {
	m.SheetsCreated.Inc()
	m.SheetsActive.Set(float64(active))
}

// RecordSheetReset records a sheet reset.
func (m *Metrics) RecordSheetReset(active int) {
	m.SheetResets.Inc()
	m.SheetsActive.Set(float64(active))
}

// RecordVoiceJob records the outcome of a voice transcription job.
func (m *Metrics) RecordVoiceJob(outcome string, durationSeconds float64) {
	m.VoiceJobs.WithLabelValues(outcome).Inc()
	m.VoiceJobDuration.Observe(durationSeconds)
}

// RecordAudioReceived records downloaded audio bytes.
func (m *Metrics) RecordAudioReceived(bytes int64) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordTempFileCreated records a temporary audio file being created.
func (m *Metrics) RecordTempFileCreated() {
	m.TempFilesOpen.Inc()
}

// RecordTempFileRemoved records a temporary audio file being released.
func (m *Metrics) RecordTempFileRemoved() {
	m.TempFilesOpen.Dec()
}

// RecordSTT records a speech-to-text call.
func (m *Metrics) RecordSTT(provider string, err error, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.STTErrors.WithLabelValues(provider, "transcribe").Inc()
	}
}

// RecordSTTError records an STT error outside a transcription call.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCRequest records a completed gRPC call.
func (m *Metrics) RecordGRPCRequest(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}
