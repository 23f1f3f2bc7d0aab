// Package runner executes candidate code against test cases through the
// Piston sandbox API.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/model"
)

// TestResult is the outcome of one test case execution.
type TestResult struct {
	Passed       bool   `json:"passed"`
	ActualOutput string `json:"actual_output"`
	Error        string `json:"error,omitempty"`
	RuntimeMs    int64  `json:"runtime_ms"`
	Hidden       bool   `json:"hidden"`
}

// RunResult aggregates the per-test results of one code run.
type RunResult struct {
	Results     []TestResult `json:"results"`
	TestsPassed int          `json:"tests_passed"`
	TestsTotal  int          `json:"tests_total"`
}

// AllPassed reports whether every executed test case succeeded.
func (r *RunResult) AllPassed() bool {
	return r.TestsTotal > 0 && r.TestsPassed == r.TestsTotal
}

// Runner runs candidate code against a set of test cases.
type Runner interface {
	Run(ctx context.Context, language model.Language, code string, tests []model.TestCase) (*RunResult, error)
}

type languageRuntime struct {
	name     string
	version  string
	fileName string
}

// Runtime pins per language. Versions track what the public Piston
// deployment ships.
var runtimes = map[model.Language]languageRuntime{
	model.LanguagePython:     {name: "python", version: "3.10.0", fileName: "main.py"},
	model.LanguageJavaScript: {name: "javascript", version: "18.15.0", fileName: "main.js"},
	model.LanguageJava:       {name: "java", version: "15.0.2", fileName: "Solution.java"},
	model.LanguageCPP:        {name: "c++", version: "10.2.0", fileName: "main.cpp"},
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin"`
}

type executeFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type executeResponse struct {
	Compile *executeStage `json:"compile,omitempty"`
	Run     executeStage  `json:"run"`
	Message string        `json:"message,omitempty"`
}

type executeStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
}

// PistonClient executes code through a Piston deployment, one request per
// test case.
type PistonClient struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
}

// NewPistonClient creates a runner against the given Piston execute
// endpoint.
func NewPistonClient(endpoint string, timeout time.Duration) *PistonClient {
	return &PistonClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.With().Str("component", "piston_runner").Logger(),
	}
}

// Run executes code against each test case in order. A compile failure
// short-circuits: every test is reported failed with the compiler output.
// Runtime errors and output mismatches fail only the affected case.
func (p *PistonClient) Run(ctx context.Context, language model.Language, code string, tests []model.TestCase) (*RunResult, error) {
	runtime, ok := runtimes[language]
	if !ok {
		return nil, fmt.Errorf("runner: unsupported language %q", language)
	}

	result := &RunResult{
		Results:    make([]TestResult, 0, len(tests)),
		TestsTotal: len(tests),
	}

	for _, test := range tests {
		started := time.Now()
		resp, err := p.execute(ctx, runtime, code, test.Input)
		elapsed := time.Since(started).Milliseconds()
		if err != nil {
			return nil, err
		}

		if resp.Compile != nil && resp.Compile.Code != 0 {
			// Compilation failing at all fails the run as a whole, even
			// if a flaky sandbox compiled earlier cases.
			compileErr := "Compile Error: " + strings.TrimSpace(resp.Compile.Stderr)
			result.Results = result.Results[:0]
			result.TestsPassed = 0
			for _, tc := range tests {
				result.Results = append(result.Results, TestResult{
					Passed:    false,
					Error:     compileErr,
					RuntimeMs: elapsed,
					Hidden:    tc.Hidden,
				})
			}
			return result, nil
		}

		tr := TestResult{
			ActualOutput: strings.TrimSpace(resp.Run.Stdout),
			RuntimeMs:    elapsed,
			Hidden:       test.Hidden,
		}
		switch {
		case resp.Run.Code != 0 && strings.TrimSpace(resp.Run.Stderr) != "":
			tr.Error = strings.TrimSpace(resp.Run.Stderr)
		case tr.ActualOutput == strings.TrimSpace(test.ExpectedOutput):
			tr.Passed = true
			result.TestsPassed++
		}
		result.Results = append(result.Results, tr)
	}

	return result, nil
}

func (p *PistonClient) execute(ctx context.Context, runtime languageRuntime, code, stdin string) (*executeResponse, error) {
	payload, err := json.Marshal(executeRequest{
		Language: runtime.name,
		Version:  runtime.version,
		Files:    []executeFile{{Name: runtime.fileName, Content: code}},
		Stdin:    stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("runner: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("runner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error().Err(err).Msg("Piston request failed")
		return nil, fmt.Errorf("runner: execute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Error().Int("status", resp.StatusCode).Msg("Piston returned non-200")
		return nil, fmt.Errorf("runner: execute: unexpected status %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("runner: decode response: %w", err)
	}
	return &out, nil
}
