// Package exitcode defines courierctl process exit codes.
package exitcode

const (
	Success = 0

	// UserError covers bad arguments and requests the API rejected as invalid.
	UserError = 1

	// AuthError covers missing, expired or rejected sessions.
	AuthError = 2

	// BackendError covers network failures and server-side errors.
	BackendError = 3
)
