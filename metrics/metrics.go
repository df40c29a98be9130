// Package metrics counts what a session saw and can dump the counts in the
// node_exporter textfile format once the session is over.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/TapTrack/tappy-stream/tappy"
)

// Recorder implements tappy.Observer on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	tagsScanned         *prometheus.CounterVec
	transportErrors     *prometheus.CounterVec
	unexpectedResponses prometheus.Counter
	sessionExit         *prometheus.CounterVec
}

var _ tappy.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with every counter registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tagsScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tappy_tags_scanned_total",
			Help: "Tags reported by the reader",
		}, []string{"described"}), // described=true|false
		transportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tappy_transport_errors_total",
			Help: "Transport errors by classified kind",
		}, []string{"kind", "fatal"}),
		unexpectedResponses: factory.NewCounter(prometheus.CounterOpts{
			Name: "tappy_unexpected_responses_total",
			Help: "Responses that were not a tag or a scan timeout",
		}),
		sessionExit: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tappy_session_exit_total",
			Help: "Finished sessions by exit code",
		}, []string{"code"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) TagScanned(described bool) {
	r.tagsScanned.WithLabelValues(strconv.FormatBool(described)).Inc()
}

func (r *Recorder) TransportError(kind tappy.ErrorKind, fatal bool) {
	r.transportErrors.WithLabelValues(kind.String(), strconv.FormatBool(fatal)).Inc()
}

func (r *Recorder) UnexpectedResponse() {
	r.unexpectedResponses.Inc()
}

func (r *Recorder) SessionEnded(code int) {
	r.sessionExit.WithLabelValues(strconv.Itoa(code)).Inc()
}

// WriteTextfile atomically writes the current counts to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
