package errors

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
}

// Stable error codes. The request-layer codes form the closed vocabulary
// every control operation failure is normalized into; the channel codes are
// the statuses pushed to the session's status observer.
const (
	CodeTimeout      = "timeout"
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeNetwork      = "network"
	CodeServer       = "server_error"

	CodeNonceFailed = "nonce_failed"
	CodeExpired     = "expired"
	CodeMaxConn     = "max_conn"

	CodeConfig       = "config_invalid"
	CodeNotConfirmed = "not_confirmed"
)

// registry maps error codes to their templates. The mapping is total through
// the fallback below: Display never returns an internal identifier.
var registry = map[string]Template{
	CodeTimeout: {
		Category: CategoryRequest,
		Message:  "The controller did not respond in time",
	},
	CodeUnauthorized: {
		Category: CategoryRequest,
		Message:  "Your session is no longer valid, please log in again",
	},
	CodeRateLimited: {
		Category: CategoryRequest,
		Message:  "Too many requests, slow down and retry shortly",
	},
	CodeNetwork: {
		Category: CategoryRequest,
		Message:  "Could not reach the controller",
	},
	CodeServer: {
		Category: CategoryRequest,
		Message:  "The controller reported an error",
	},
	CodeNonceFailed: {
		Category: CategoryChannel,
		Message:  "Could not obtain a connection challenge",
	},
	CodeExpired: {
		Category: CategoryChannel,
		Message:  "The live channel was closed because your session expired",
	},
	CodeMaxConn: {
		Category: CategoryChannel,
		Message:  "The controller refused the connection: too many dashboards open",
	},
	CodeConfig: {
		Category: CategoryConfig,
		Message:  "The configuration file is invalid",
	},
	CodeNotConfirmed: {
		Category: CategoryCLI,
		Message:  "This operation requires explicit confirmation",
	},
}

// fallback is the template used for any code missing from the registry.
var fallback = Template{
	Category: CategoryRequest,
	Message:  "Something went wrong, please try again",
}

// Display returns the user-presentable text for a code. Unknown codes fall
// back to a generic string rather than leaking the identifier.
func Display(code string) string {
	if tmpl, ok := registry[code]; ok {
		return tmpl.Message
	}
	return fallback.Message
}
