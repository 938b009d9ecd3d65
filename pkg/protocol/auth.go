package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// AuthRequest is the first and only frame a client may send on a new
// connection before the controller acknowledges it. Challenge is the
// single-use nonce issued by the controller; Signature is computed with Sign.
type AuthRequest struct {
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

// EncodeAuthRequest encodes an AuthRequest as a JSON text frame.
func EncodeAuthRequest(challenge, signature string) ([]byte, error) {
	return json.Marshal(&AuthRequest{Challenge: challenge, Signature: signature})
}

// Sign derives the handshake signature from a challenge and the bearer
// credential: hex-encoded SHA-256 over "challenge:credential". The result is
// deterministic and must be recomputed for every connection attempt, since
// the controller invalidates each challenge after one use.
func Sign(challenge, credential string) string {
	sum := sha256.Sum256([]byte(challenge + ":" + credential))
	return hex.EncodeToString(sum[:])
}

// authAck mirrors the acknowledgement frame sent by the controller once the
// signature checks out.
type authAck struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// IsAuthAck reports whether a raw frame is a successful authentication
// acknowledgement ({"type":"auth","status":"ok"}). Frames that fail to parse
// or carry any other shape are not acknowledgements.
func IsAuthAck(raw []byte) bool {
	var ack authAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return false
	}
	return ack.Type == "auth" && ack.Status == "ok"
}
