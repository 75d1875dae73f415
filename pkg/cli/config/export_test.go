package config

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProjectID, geminiLocation, openaiAPIKey string) *LLM {
	return &LLM{
		provider:        provider,
		geminiProjectID: geminiProjectID,
		geminiLocation:  geminiLocation,
		openaiAPIKey:    openaiAPIKey,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewWorkspacesForTest creates a Workspaces config for testing purposes
func NewWorkspacesForTest(configPath string) *Workspaces {
	return &Workspaces{configPath: configPath}
}
