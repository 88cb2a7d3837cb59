package main

// Exit codes
const (
	ExitSuccess     = 0   // Success
	ExitError       = 1   // General error (invalid arguments, runtime failure)
	ExitConfigError = 2   // Configuration error (unreadable config, invalid options)
	ExitDataError   = 3   // Data error (malformed edge list, invalid partition)
	ExitRenderError = 4   // Hierarchy computed but one or more images failed
	ExitInterrupted = 130 // Cancelled by signal
)
