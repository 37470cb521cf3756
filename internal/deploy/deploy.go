// Package deploy renders the assistant template and pushes it to the voice platform.
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/realflow/voice-intake/internal/vapi"
)

const (
	// BrokeragePlaceholder is substituted in every string of the template.
	BrokeragePlaceholder = "[BROKERAGE_NAME]"
	// AssistantIDKey is the env variable the created assistant id is saved under.
	AssistantIDKey = "VAPI_ASSISTANT_ID"

	dashboardURL = "https://dashboard.vapi.ai/phone-numbers"
	docsURL      = "https://docs.vapi.ai/api-reference/assistants/create-assistant"
	rule         = "============================================================"
)

// Settings are the operator inputs for one deployment.
type Settings struct {
	BrokerageName   string
	WebhookURL      string
	WebhookSecret   string
	AssistantID     string
	TemplatePath    string
	DebugConfigPath string
	EnvFile         string
}

// Result describes the assistant after deployment.
type Result struct {
	AssistantID string
	Name        string
	Created     bool
	Config      map[string]any
}

// Deployer creates or updates the assistant and reports progress to out.
type Deployer struct {
	directory vapi.AssistantDirectory
	out       io.Writer
}

// NewDeployer wires a deployer. A nil writer discards output.
func NewDeployer(directory vapi.AssistantDirectory, out io.Writer) *Deployer {
	if out == nil {
		out = io.Discard
	}
	return &Deployer{directory: directory, out: out}
}

// Run renders the template, saves a debug copy, then updates the assistant
// named by Settings.AssistantID or creates a new one and records its id.
func (d *Deployer) Run(ctx context.Context, s Settings) (*Result, error) {
	template, err := LoadTemplate(s.TemplatePath)
	if err != nil {
		return nil, err
	}
	cfg := BuildConfig(template, s)

	fmt.Fprintln(d.out, rule)
	fmt.Fprintln(d.out, " DEPLOYING VAPI ASSISTANT")
	fmt.Fprintln(d.out, rule)
	fmt.Fprintln(d.out, "\n Configuration:")
	fmt.Fprintf(d.out, "   Brokerage: %s\n", s.BrokerageName)
	fmt.Fprintf(d.out, "   Webhook URL: %s\n", s.WebhookURL)
	fmt.Fprintf(d.out, "   Model: %s\n", modelName(cfg))

	if s.DebugConfigPath != "" {
		if err := WriteDebugConfig(s.DebugConfigPath, cfg); err != nil {
			return nil, err
		}
		fmt.Fprintf(d.out, "\n Full config saved to: %s\n", s.DebugConfigPath)
	}

	result := &Result{Config: cfg}
	id := strings.TrimSpace(s.AssistantID)
	if id != "" {
		fmt.Fprintf(d.out, "\n Updating existing assistant: %s\n", id)
		resp, err := d.directory.UpdateAssistant(ctx, id, cfg)
		if err != nil {
			d.printFailure(err, s.DebugConfigPath)
			return nil, fmt.Errorf("update assistant %s: %w", id, err)
		}
		result.AssistantID = id
		result.Name = stringField(resp, "name")
		fmt.Fprintln(d.out, " Assistant updated successfully!")
	} else {
		fmt.Fprintln(d.out, "\n Creating new assistant...")
		resp, err := d.directory.CreateAssistant(ctx, cfg)
		if err != nil {
			d.printFailure(err, s.DebugConfigPath)
			return nil, fmt.Errorf("create assistant: %w", err)
		}
		newID := stringField(resp, "id")
		if newID == "" {
			return nil, errors.New("create assistant: response carried no id")
		}
		result.AssistantID = newID
		result.Name = stringField(resp, "name")
		result.Created = true

		if s.EnvFile != "" {
			if err := PersistAssistantID(s.EnvFile, newID); err != nil {
				return nil, err
			}
		}
		fmt.Fprintln(d.out, " Assistant created successfully!")
		fmt.Fprintf(d.out, " Assistant ID: %s\n", newID)
	}

	fmt.Fprintln(d.out, "\n Next Steps:")
	fmt.Fprintf(d.out, "   1. Go to %s\n", dashboardURL)
	fmt.Fprintln(d.out, "   2. Click on your phone number")
	fmt.Fprintf(d.out, "   3. Under 'Assistant', select: %s\n", result.Name)
	fmt.Fprintln(d.out, "   4. Save and start receiving calls!")
	fmt.Fprintln(d.out, rule)

	return result, nil
}

func (d *Deployer) printFailure(err error, debugPath string) {
	fmt.Fprintf(d.out, "\n Error deploying assistant: %v\n", err)

	var apiErr *vapi.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(d.out, "\n Error Details:")
		fmt.Fprintln(d.out, prettyBody(apiErr.Body))
	}

	fmt.Fprintln(d.out, "\nDebug steps:")
	fmt.Fprintf(d.out, "   1. Check %s for the full configuration\n", debugPath)
	fmt.Fprintln(d.out, "   2. Verify your API key is correct")
	fmt.Fprintf(d.out, "   3. Check Vapi docs: %s\n", docsURL)
}

// LoadTemplate reads the assistant template JSON object.
func LoadTemplate(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assistant template: %w", err)
	}
	template := map[string]any{}
	if err := json.Unmarshal(raw, &template); err != nil {
		return nil, fmt.Errorf("parse assistant template %s: %w", path, err)
	}
	return template, nil
}

// BuildConfig returns a copy of template with the brokerage substituted and
// the webhook fields and first message set. template is not modified.
func BuildConfig(template map[string]any, s Settings) map[string]any {
	cfg, _ := substitute(template, s.BrokerageName).(map[string]any)
	if cfg == nil {
		cfg = map[string]any{}
	}

	cfg["serverUrl"] = s.WebhookURL
	if s.WebhookSecret != "" {
		cfg["serverUrlSecret"] = s.WebhookSecret
	}
	cfg["firstMessage"] = fmt.Sprintf("Hello! This is Realflow for %s. How can I help you today?", s.BrokerageName)
	return cfg
}

func substitute(value any, brokerage string) any {
	switch v := value.(type) {
	case string:
		return strings.ReplaceAll(v, BrokeragePlaceholder, brokerage)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = substitute(item, brokerage)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substitute(item, brokerage)
		}
		return out
	default:
		return v
	}
}

// WriteDebugConfig saves the rendered config with two-space indentation.
func WriteDebugConfig(path string, cfg map[string]any) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal debug config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create debug config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write debug config: %w", err)
	}
	return nil
}

// PersistAssistantID sets AssistantIDKey in the env file. An existing entry
// is rewritten on its own line and every other line, comments included, is
// kept byte for byte. A missing file is created.
func PersistAssistantID(envFile, id string) error {
	content, err := os.ReadFile(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read env file %s: %w", envFile, err)
	}
	if _, err := godotenv.Unmarshal(string(content)); err != nil {
		return fmt.Errorf("parse env file %s: %w", envFile, err)
	}

	mode := fs.FileMode(0o600)
	if info, statErr := os.Stat(envFile); statErr == nil {
		mode = info.Mode().Perm()
	}

	entry := AssistantIDKey + "=" + envValue(id)
	lines := strings.Split(string(content), "\n")
	replaced := false
	for i, line := range lines {
		if isEnvKey(line, AssistantIDKey) {
			lines[i] = entry
			replaced = true
		}
	}

	out := strings.Join(lines, "\n")
	if !replaced {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += entry + "\n"
	}

	if err := os.WriteFile(envFile, []byte(out), mode); err != nil {
		return fmt.Errorf("write env file %s: %w", envFile, err)
	}
	return nil
}

func isEnvKey(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "export ")
	name, _, found := strings.Cut(trimmed, "=")
	return found && strings.TrimSpace(name) == key
}

// envValue quotes values that a dotenv parser would otherwise split or strip.
func envValue(value string) string {
	if value == "" || strings.ContainsAny(value, " \t#'\"\\$\n") {
		return strconv.Quote(value)
	}
	return value
}

func modelName(cfg map[string]any) string {
	model, ok := cfg["model"].(map[string]any)
	if !ok {
		return "unknown"
	}
	if name := stringField(model, "model"); name != "" {
		return name
	}
	return "unknown"
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func prettyBody(body string) string {
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return body
	}
	out, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return body
	}
	return string(out)
}
