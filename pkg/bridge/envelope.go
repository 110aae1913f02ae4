package bridge

import "webmoe/pkg/version"

// Envelope is the uniform response body returned for every webhook request.
//
// Every outcome carries the same app/version identity so callers can tell
// which build produced a response. The status field is authoritative; the
// HTTP status code is always 2xx.
type Envelope struct {
	App            string `json:"app"`
	Version        string `json:"version"`
	Status         string `json:"status"`
	BroadcastCount *int   `json:"broadcast_count,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

const (
	StatusOK      = "ok"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

// Fixed reasons for the operational error outcomes.
const (
	ReasonBotNotFound      = "Bot not found"
	ReasonBotNotOnline     = "Bot is not online"
	ReasonMalformedPayload = "Malformed event payload"
)

func stamp(envelope Envelope) Envelope {
	envelope.App = version.App
	envelope.Version = version.Version
	return envelope
}

// OK is the plain success envelope, used by the health check.
func OK() Envelope {
	return stamp(Envelope{Status: StatusOK})
}

// OKBroadcast is the success envelope after a broadcast was triggered.
// The count echoes the configured fan-out, not delivered messages.
func OKBroadcast(count int) Envelope {
	return stamp(Envelope{Status: StatusOK, BroadcastCount: &count})
}

// Ignored marks an event name outside the bridge's vocabulary.
func Ignored() Envelope {
	return stamp(Envelope{Status: StatusIgnored})
}

// Error marks an operational failure with a human-readable reason.
func Error(reason string) Envelope {
	return stamp(Envelope{Status: StatusError, Reason: reason})
}
