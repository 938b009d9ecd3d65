package protocol

import (
	"encoding/json"
)

// Message is an event envelope pushed by the controller after the handshake:
// plugin state changes, permission updates, log lines, system notices. Type
// is the discriminator; Raw is the complete frame so observers can decode
// the payload shapes they care about without this package enumerating them.
type Message struct {
	Type string
	Raw  json.RawMessage
}

// messageHeader extracts only the discriminator during parsing.
type messageHeader struct {
	Type string `json:"type"`
}

// ParseMessage parses an inbound text frame into a Message. It returns
// false for frames that are not JSON objects or lack a string "type" field;
// such frames are dropped by the channel rather than forwarded.
func ParseMessage(raw []byte) (Message, bool) {
	var hdr messageHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return Message{}, false
	}
	if hdr.Type == "" {
		return Message{}, false
	}
	msg := Message{Type: hdr.Type, Raw: make(json.RawMessage, len(raw))}
	copy(msg.Raw, raw)
	return msg, true
}
