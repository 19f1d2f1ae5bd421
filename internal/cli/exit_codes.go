package cli

// Exit codes for the changekit CLI, for scripting and CI composition.
const (
	// ExitSuccess indicates successful command execution.
	ExitSuccess = 0

	// ExitValidation indicates input failed a validation gate.
	ExitValidation = 1

	// ExitEnvironment indicates the workspace or its tooling is unusable.
	ExitEnvironment = 2

	// ExitExternal indicates the diff tool or the AI endpoint failed.
	ExitExternal = 3

	// ExitInternal indicates an unexpected failure.
	ExitInternal = 4
)
