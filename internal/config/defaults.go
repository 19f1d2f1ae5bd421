package config

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"api_url":            "https://generativelanguage.googleapis.com",
		"model":              "gemini-2.0-flash",
		"request_timeout":    60,
		"diff_timeout":       30,
		"max_diff_bytes":     int64(10 << 20),
		"max_manifests":      1000,
		"changeset_dir":      ".changeset",
		"skip_confirmations": false,
	}
}

// DefaultConfigTemplate is a commented config file written by documentation
// or init tooling; it mirrors Defaults.
const DefaultConfigTemplate = `# changekit configuration
api_url: https://generativelanguage.googleapis.com
model: gemini-2.0-flash
request_timeout: 60        # AI request timeout, seconds (1-600)
diff_timeout: 30           # staged diff retrieval timeout, seconds (1-300)
max_diff_bytes: 10485760   # reject staged diffs larger than this
max_manifests: 1000        # abort discovery beyond this many manifests
changeset_dir: .changeset  # directory for changeset files, under the workspace root
skip_confirmations: false  # skip confirmation prompts (also CHANGEKIT_YES=1)
`
