package packet

// Outcome classifies how a request ended.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeCanceled Outcome = "canceled"
	OutcomeFailed   Outcome = "failed"
)

// Metrics receives transport and dispatch measurements. The metrics package
// provides a Prometheus implementation.
type Metrics interface {
	RequestSent(namespace string)
	RequestSettled(namespace string, outcome Outcome, ticks int)
	MessageReceived(kind string)
	ProtocolError()
	ListenerFailed(namespace string)
	PendingRequests(n int)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RequestSent(string) {}
func (NopMetrics) RequestSettled(string, Outcome, int) {}
func (NopMetrics) MessageReceived(string) {}
func (NopMetrics) ProtocolError() {}
func (NopMetrics) ListenerFailed(string) {}
func (NopMetrics) PendingRequests(int) {}
