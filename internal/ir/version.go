package ir

// Version constants for the IR and the generator.
const (
	// IRVersion is the descriptor table schema version.
	IRVersion = "1"

	// GeneratorVersion is stamped into cache records.
	GeneratorVersion = "0.3.0"
)
