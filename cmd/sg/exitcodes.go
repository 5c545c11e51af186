package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config, workspace)
	ExitDataError   = 3 // Data error (no graph loaded, unknown id, malformed input)
	ExitNotFound    = 4 // Resource not found on the backend or in the local store
	ExitAuthError   = 5 // Missing or rejected credential
	ExitAPIError    = 6 // Backend error (rate limit, network, invalid response)
)
