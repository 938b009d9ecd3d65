// Package protocol defines the wire contract between the admin client and
// the bot controller's control channel.
//
// The control channel is a WebSocket carrying JSON text frames. A freshly
// opened connection is untrusted: the first client frame must be an
// AuthRequest built from a single-use server-issued challenge, and the first
// server frame of interest is the auth acknowledgement. Everything after the
// acknowledgement is an event envelope (Message) pushed by the controller.
//
// # Handshake
//
//	client → server: {"challenge": "<nonce>", "signature": "<hex sha256>"}
//	server → client: {"type": "auth", "status": "ok"}
//
// The signature proves possession of the bearer credential without sending
// it over the socket: Sign computes SHA-256 over "challenge:credential".
//
// # Close codes
//
// The controller ends a connection with one of a small set of close codes.
// Their numeric values are a compatibility contract with the deployed
// controller and must not change:
//
//   - 4001: the bearer credential is no longer valid
//   - 4003: the controller's connection limit was reached
//   - anything else: transient; the client may reconnect
package protocol
