package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthorizationDenied = fmt.Errorf("authorization denied")
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Lookup errors
	ErrChannelNotFound = fmt.Errorf("channel not found")
	ErrRewardNotFound  = fmt.Errorf("reward not found")
	ErrTrackParse      = fmt.Errorf("no track link found")
	ErrNoTracks        = fmt.Errorf("no tracks to add")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
