package metrics

import (
	"github.com/clusterfs/rpcsec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CodecMetrics tracks the Netlink <-> YAML bridge (component F): bytes
// moved through the decoder and encoder, and messages by kind.
type CodecMetrics struct {
	bytesDecoded *prometheus.CounterVec
	bytesEncoded prometheus.Counter
	messages     *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

// NewCodecMetrics creates and registers codec metrics.
func NewCodecMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CodecMetrics {
	cm := &CodecMetrics{
		bytesDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "codec_bytes_decoded_total",
				Help:      "Total YAML bytes produced by the decoder, by round kind",
			},
			[]string{"kind"},
		),
		bytesEncoded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "codec_bytes_encoded_total",
				Help:      "Total YAML bytes consumed by the encoder",
			},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "codec_messages_total",
				Help:      "Total messages processed, by direction and kind",
			},
			[]string{"direction", "kind"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "codec_errors_total",
				Help:      "Total codec failures, by direction",
			},
			[]string{"direction"},
		),
	}

	registry.MustRegister(cm.bytesDecoded, cm.bytesEncoded, cm.messages, cm.errors)
	return cm
}

// RecordDecodedRound records one decoded Round producing n bytes of YAML text.
func (cm *CodecMetrics) RecordDecodedRound(kind string, n int) {
	cm.bytesDecoded.WithLabelValues(kind).Add(float64(n))
	cm.messages.WithLabelValues("decode", kind).Inc()
}

// RecordEncodedChunk records n bytes of YAML text consumed by the encoder.
func (cm *CodecMetrics) RecordEncodedChunk(n int) {
	cm.bytesEncoded.Add(float64(n))
	cm.messages.WithLabelValues("encode", "chunk").Inc()
}

// RecordError records a codec failure on the given direction ("decode"/"encode").
func (cm *CodecMetrics) RecordError(direction string) {
	cm.errors.WithLabelValues(direction).Inc()
}
