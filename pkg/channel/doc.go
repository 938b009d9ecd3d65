// Package channel maintains the live control channel between the admin
// client and the bot controller.
//
// A Session owns at most one logical WebSocket connection. Connecting runs a
// challenge-response handshake: fetch a single-use nonce through the request
// layer, sign it with the bearer credential, open the transport, send the
// auth frame, and wait for the controller's acknowledgement. Nothing the
// controller sends before that acknowledgement reaches the message observer.
//
// Once open, every inbound event envelope is forwarded to the message
// observer in arrival order; malformed frames are dropped. When the
// transport closes, the close code decides what happens next: credential
// expiry and connection-limit rejections are terminal, everything else
// schedules one reconnection attempt after a fixed delay. A scheduled
// attempt never fires after an explicit Disconnect.
package channel
