package agents

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codesmith/internal/logging"
)

// fixedPrompts are never read from disk.
var fixedPrompts = map[Role]string{
	RoleReasoner:        "You provide detailed logical analysis and improvements.",
	RoleQuickReasoner:   "You give fast, simple feedback on logic plans.",
	RoleLogicalReasoner: "You deeply analyze problems and decompose them logically.",
}

// fallbackPrompts apply when <dir>/<name>.txt is missing.
var fallbackPrompts = map[string]string{
	"codegen":           "You are an expert Go programmer. Write clean, efficient code.",
	"testcase":          "You are a QA engineer. Generate comprehensive JSON test cases.",
	"verifier":          "You are a code verifier. Analyze test results and find bugs.",
	"corrector":         "You are a code corrector. Fix the given code based on test failures.",
	"task_analyzer":     "You analyze tasks and recommend reasoning strategies.",
	"symbolic_reasoner": "You translate logic into symbolic representations and abstract reasoning.",
}

// PromptLibrary loads role system prompts from a directory of text files.
type PromptLibrary struct {
	dir string
}

// NewPromptLibrary reads prompts from dir. An empty dir uses fallbacks only.
func NewPromptLibrary(dir string) *PromptLibrary {
	return &PromptLibrary{dir: dir}
}

// Load returns the prompt named name, falling back to a built-in default.
func (l *PromptLibrary) Load(name string) string {
	if l != nil && l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, name+".txt"))
		switch {
		case err == nil:
			return string(data)
		case !errors.Is(err, fs.ErrNotExist):
			logging.AgentsError("prompt %s: %v", name, err)
		}
	}
	if p, ok := fallbackPrompts[name]; ok {
		return p
	}
	return "You are a helpful " + name + " assistant."
}

// For returns the system prompt for role.
func (l *PromptLibrary) For(role Role) string {
	if p, ok := fixedPrompts[role]; ok {
		return p
	}
	return strings.TrimSpace(l.Load(role.promptName()))
}
