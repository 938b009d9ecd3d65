package protocol

// Controller close codes. 4001 and 4003 are fixed by the deployed controller
// and must be preserved bit-for-bit.
const (
	CloseCredentialExpired = 4001
	CloseConnectionLimit   = 4003
)

// CloseReason classifies why a control channel connection ended. The reason
// decides whether the client is allowed to reconnect automatically.
type CloseReason uint8

const (
	// CloseNormal is an orderly shutdown (standard close codes). Transient;
	// reconnection is allowed.
	CloseNormal CloseReason = iota

	// CloseExpired means the controller rejected the bearer credential. The
	// caller must obtain a fresh credential; reconnection is forbidden.
	CloseExpired

	// CloseLimit means the controller refused the connection because its
	// per-deployment connection cap was reached. Reconnection is forbidden.
	CloseLimit

	// CloseTransport covers abnormal closure: network interruption, read
	// errors, unrecognized codes. Transient; reconnection is allowed.
	CloseTransport
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseNormal:
		return "Normal"
	case CloseExpired:
		return "Expired"
	case CloseLimit:
		return "ConnectionLimit"
	case CloseTransport:
		return "TransportError"
	default:
		return "Unknown"
	}
}

// Reconnectable reports whether the reconnection policy permits another
// attempt after a closure with this reason.
func (r CloseReason) Reconnectable() bool {
	return r != CloseExpired && r != CloseLimit
}

// ClassifyClose maps a numeric WebSocket close code to a CloseReason.
// Codes outside the controller's reserved range fall into the transient
// classes so a flaky network never strands the channel permanently.
func ClassifyClose(code int) CloseReason {
	switch code {
	case CloseCredentialExpired:
		return CloseExpired
	case CloseConnectionLimit:
		return CloseLimit
	case 1000, 1001:
		return CloseNormal
	default:
		return CloseTransport
	}
}
