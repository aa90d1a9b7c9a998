package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_messages_sent_total",
			Help: "Protocol messages sent to the peer",
		},
		[]string{"kind"},
	)
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_messages_received_total",
			Help: "Protocol messages received from the peer",
		},
		[]string{"kind"},
	)
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_messages_dropped_total",
			Help: "Inbound frames dropped because they could not be decoded",
		},
		[]string{"reason"},
	)
	MovesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_moves_applied_total",
			Help: "Moves applied to the board",
		},
		[]string{"origin"},
	)
	PebblesRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_pebbles_removed_total",
			Help: "Pebbles pushed off the board",
		},
		[]string{"owner"},
	)
	Desyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abalone_desyncs_total",
			Help: "Detected disagreements with the peer",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesReceived)
	prometheus.MustRegister(MessagesDropped)
	prometheus.MustRegister(MovesApplied)
	prometheus.MustRegister(PebblesRemoved)
	prometheus.MustRegister(Desyncs)
}
