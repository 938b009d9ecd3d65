// Package api implements the request layer of the bot controller admin
// client: bounded-time request/response exchanges against the controller's
// HTTP API, bearer authentication, and normalization of every failure into a
// small stable error vocabulary.
//
// Each call is independent. The control channel (pkg/channel) uses this
// package to fetch connection challenges, but no control operation depends
// on the channel being open.
//
// # Error vocabulary
//
// Every failed call returns an error carrying exactly one of five codes:
// timeout, unauthorized, rate_limited, network, server_error. Use the Is*
// predicates to branch on them. An unauthorized response has one deliberate
// side effect: the client's held credential is cleared, so later calls (and
// channel reconnects) fail fast until the caller logs in again.
package api
