package main

// Exit codes returned by bsx commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config, missing catalog)
	ExitDataError   = 3 // Data error (unknown publication id, corrupt cache entry)
	ExitNoSource    = 4 // No content could be acquired for the publication
	ExitExtraction  = 5 // A PDF was obtained but no text could be extracted
)
