package model

// Language enumerates the programming languages a candidate may sit an
// exam in.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
)

// DisplayName returns the human-readable name of a language.
func (l Language) DisplayName() string {
	switch l {
	case LanguagePython:
		return "Python"
	case LanguageJavaScript:
		return "JavaScript"
	case LanguageJava:
		return "Java"
	case LanguageCPP:
		return "C++"
	default:
		return string(l)
	}
}

// TestCase is one input/expected-output pair a candidate's program is run
// against. Hidden cases are only exercised on a submit run.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
}

// ExamQuestion is one coding question within a session, either drawn from
// the static bank or from a host-configured instance.
type ExamQuestion struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Difficulty    string     `json:"difficulty"`
	InputFormat   string     `json:"input_format,omitempty"`
	OutputFormat  string     `json:"output_format,omitempty"`
	Constraints   string     `json:"constraints,omitempty"`
	StarterCode   string     `json:"starter_code"`
	VisibleTests  []TestCase `json:"visible_tests"`
	HiddenTests   []TestCase `json:"-"`
	TimeLimitMs   int        `json:"time_limit_ms"`
	MemoryLimitMb int        `json:"memory_limit_mb"`
}

// RunTests returns the test cases a run should execute: visible cases for
// an ordinary run, visible plus hidden for a submit run.
func (q *ExamQuestion) RunTests(submitRun bool) []TestCase {
	if !submitRun {
		return q.VisibleTests
	}
	tests := make([]TestCase, 0, len(q.VisibleTests)+len(q.HiddenTests))
	tests = append(tests, q.VisibleTests...)
	tests = append(tests, q.HiddenTests...)
	return tests
}
