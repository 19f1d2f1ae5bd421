// Package suggest asks an AI model for a changeset suggestion over the
// staged diff and strictly validates the structured reply. One request per
// invocation: a failed or malformed reply is terminal for the current run,
// never silently retried against the paid endpoint. The package performs no
// filesystem access.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raveheart1/changekit/internal/keystore"
	"github.com/raveheart1/changekit/internal/validation"
)

const (
	// DefaultBaseURL is the AI endpoint base.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used when configuration does not override it.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTimeout bounds one suggestion request.
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of a reply body is read.
	maxResponseBytes = 4 << 20
)

// ErrCancelled is returned when the caller cancels the request; it is a
// distinct outcome, not an error condition to report loudly.
var ErrCancelled = errors.New("suggestion cancelled")

// debugLogger is a no-op until SetDebugLogger installs one.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for suggestion requests.
// Credentials and diff bodies are never logged.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Suggestion is a validated AI reply: which packages to bump and how, plus
// one summary line.
type Suggestion struct {
	Bumps   map[string]string
	Summary string
}

// Engine builds, sends, and validates suggestion requests. The credential
// store is injected so an authorization failure can invalidate the stored
// key, forcing a re-prompt on the next run instead of repeating a doomed
// call.
type Engine struct {
	BaseURL string
	Model   string
	Keys    keystore.Store
	Client  *http.Client
}

// New returns an engine with defaults applied for any zero-valued option.
func New(keys keystore.Store, baseURL, model string, timeout time.Duration) *Engine {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		BaseURL: baseURL,
		Model:   model,
		Keys:    keys,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Request/response envelope for the generateContent API.
type (
	geminiRequest struct {
		Contents         []geminiContent  `json:"contents"`
		GenerationConfig generationConfig `json:"generationConfig"`
	}
	geminiContent struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	}
	geminiPart struct {
		Text string `json:"text"`
	}
	generationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	}
	geminiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
)

// Suggest sends one request embedding the known package names and the diff
// text, and returns the validated suggestion. Cancellation of ctx before or
// during the wait yields ErrCancelled. An HTTP 401/403 deletes the stored
// credential before the error is surfaced.
func (e *Engine) Suggest(ctx context.Context, diff string, packageNames []string) (*Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	key, err := e.Keys.Get()
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(diff, packageNames)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", e.BaseURL, e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Header transport keeps the credential out of URLs, where it could leak
	// into logs or proxies.
	req.Header.Set("x-goog-api-key", key)

	logDebug("[suggest] POST %s (%d request bytes, %d packages)", url, len(reqBody), len(packageNames))

	resp, err := e.Client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("sending suggestion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if delErr := e.Keys.Delete(); delErr != nil {
			logDebug("[suggest] clearing stored credential failed: %v", delErr)
		}
		return nil, fmt.Errorf("authorization failed (status %d); the stored API key was cleared, set a new one with 'changekit key set'", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("AI endpoint returned status %d", resp.StatusCode)
	}

	text, err := extractText(body)
	if err != nil {
		return nil, err
	}
	return parseSuggestion(text, packageNames)
}

// buildPrompt assembles the single-turn instruction embedding the known
// package list and the literal diff text.
func buildPrompt(diff string, packageNames []string) string {
	var sb strings.Builder
	sb.WriteString("You are generating a changeset for a monorepo release.\n")
	sb.WriteString("Known packages:\n")
	for _, name := range packageNames {
		sb.WriteString("- ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	sb.WriteString("\nAnalyze the staged diff below and reply with ONLY a JSON object of the form\n")
	sb.WriteString(`{"bumps": {"<package>": "major"|"minor"|"patch"}, "summary": "<one sentence>"}` + "\n")
	sb.WriteString("Include bumps only for known packages actually touched by the diff.\n")
	sb.WriteString("Keep the summary under 1000 characters.\n\nStaged diff:\n")
	sb.WriteString(diff)
	return sb.String()
}

// extractText pulls the model's raw reply text out of the response envelope.
func extractText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid reply envelope: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("reply contains no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// parseSuggestion strips any code-fence wrapping, parses the reply as JSON,
// and applies the structural checks in order, each failure terminal:
// both keys present, every bump key a valid package name known to the
// workspace, every bump value a valid level, summary length bounded.
// A reply failing any check is rejected whole, never partially applied.
func parseSuggestion(text string, packageNames []string) (*Suggestion, error) {
	known := make(map[string]bool, len(packageNames))
	for _, name := range packageNames {
		known[name] = true
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("invalid structured reply: %w", err)
	}

	bumpsRaw, ok := raw["bumps"]
	if !ok {
		return nil, fmt.Errorf("invalid structured reply: missing \"bumps\"")
	}
	summaryRaw, ok := raw["summary"]
	if !ok {
		return nil, fmt.Errorf("invalid structured reply: missing \"summary\"")
	}

	var bumps map[string]string
	if err := json.Unmarshal(bumpsRaw, &bumps); err != nil {
		return nil, fmt.Errorf("invalid structured reply: \"bumps\" is not a string mapping")
	}
	for name, level := range bumps {
		if !validation.IsValidPackageName(name) {
			return nil, fmt.Errorf("suggestion rejected: invalid package name %q", name)
		}
		if !known[name] {
			return nil, fmt.Errorf("suggestion rejected: unknown package %q", name)
		}
		if !validation.IsValidBumpType(level) {
			return nil, fmt.Errorf("suggestion rejected: invalid bump level %q for package %q", level, name)
		}
	}

	var summary string
	if err := json.Unmarshal(summaryRaw, &summary); err != nil {
		return nil, fmt.Errorf("invalid structured reply: \"summary\" is not a string")
	}
	if err := validation.CheckSummary(summary); err != nil {
		return nil, fmt.Errorf("suggestion rejected: %w", err)
	}

	return &Suggestion{Bumps: bumps, Summary: summary}, nil
}

// stripCodeFences removes a fenced-code wrapper (```json ... ```), which
// models often add around structured replies despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		return strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
