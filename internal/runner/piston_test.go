package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsarena/exam-backend/internal/model"
)

func pistonStub(t *testing.T, handler func(req executeRequest) executeResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, http.MethodPost, r.Method)
		resp := handler(req)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRunAllTestsPass(t *testing.T) {
	srv := pistonStub(t, func(req executeRequest) executeResponse {
		assert.Equal(t, "python", req.Language)
		assert.Equal(t, "3.10.0", req.Version)
		// Echo the stdin back so expected outputs match.
		return executeResponse{Run: executeStage{Stdout: req.Stdin + "\n"}}
	})
	defer srv.Close()

	client := NewPistonClient(srv.URL, 5*time.Second)
	result, err := client.Run(context.Background(), model.LanguagePython, "print(input())", []model.TestCase{
		{Input: "hello", ExpectedOutput: "hello"},
		{Input: "world", ExpectedOutput: "world", Hidden: true},
	})
	require.NoError(t, err)

	assert.True(t, result.AllPassed())
	assert.Equal(t, 2, result.TestsPassed)
	assert.Equal(t, 2, result.TestsTotal)
	require.Len(t, result.Results, 2)
	assert.False(t, result.Results[0].Hidden)
	assert.True(t, result.Results[1].Hidden)
}

func TestRunOutputMismatchFailsCase(t *testing.T) {
	srv := pistonStub(t, func(req executeRequest) executeResponse {
		return executeResponse{Run: executeStage{Stdout: "wrong\n"}}
	})
	defer srv.Close()

	client := NewPistonClient(srv.URL, 5*time.Second)
	result, err := client.Run(context.Background(), model.LanguageCPP, "int main() {}", []model.TestCase{
		{Input: "1 2", ExpectedOutput: "3"},
	})
	require.NoError(t, err)

	assert.False(t, result.AllPassed())
	assert.Equal(t, 0, result.TestsPassed)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "wrong", result.Results[0].ActualOutput)
	assert.Empty(t, result.Results[0].Error)
}

func TestRunCompileErrorShortCircuits(t *testing.T) {
	var calls int
	srv := pistonStub(t, func(req executeRequest) executeResponse {
		calls++
		return executeResponse{
			Compile: &executeStage{Stderr: "Solution.java:3: error: ';' expected", Code: 1},
		}
	})
	defer srv.Close()

	client := NewPistonClient(srv.URL, 5*time.Second)
	result, err := client.Run(context.Background(), model.LanguageJava, "class Solution {", []model.TestCase{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "2"},
		{Input: "3", ExpectedOutput: "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "compile failure should stop after the first request")
	assert.Equal(t, 0, result.TestsPassed)
	require.Len(t, result.Results, 3)
	for _, tr := range result.Results {
		assert.False(t, tr.Passed)
		assert.Contains(t, tr.Error, "Compile Error:")
	}
}

func TestRunLateCompileFailureFailsWholeRun(t *testing.T) {
	// A flaky sandbox that compiles the first case and rejects the second
	// still fails every case, with hidden flags matching the test set.
	var calls int
	srv := pistonStub(t, func(req executeRequest) executeResponse {
		calls++
		if calls == 1 {
			return executeResponse{Run: executeStage{Stdout: "1\n"}}
		}
		return executeResponse{
			Compile: &executeStage{Stderr: "main.cpp:1: error: expected declaration", Code: 1},
		}
	})
	defer srv.Close()

	client := NewPistonClient(srv.URL, 5*time.Second)
	result, err := client.Run(context.Background(), model.LanguageCPP, "int main() {", []model.TestCase{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "2", Hidden: true},
		{Input: "3", ExpectedOutput: "3", Hidden: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TestsPassed)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[0].Hidden)
	assert.True(t, result.Results[1].Hidden)
	assert.True(t, result.Results[2].Hidden)
	for _, tr := range result.Results {
		assert.False(t, tr.Passed)
		assert.Contains(t, tr.Error, "Compile Error:")
	}
}

func TestRunRuntimeErrorReported(t *testing.T) {
	srv := pistonStub(t, func(req executeRequest) executeResponse {
		return executeResponse{Run: executeStage{Stderr: "Traceback (most recent call last)", Code: 1}}
	})
	defer srv.Close()

	client := NewPistonClient(srv.URL, 5*time.Second)
	result, err := client.Run(context.Background(), model.LanguagePython, "raise Exception()", []model.TestCase{
		{Input: "", ExpectedOutput: "ok"},
	})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Passed)
	assert.Contains(t, result.Results[0].Error, "Traceback")
}

func TestRunUnsupportedLanguage(t *testing.T) {
	client := NewPistonClient("http://unused", time.Second)
	_, err := client.Run(context.Background(), model.Language("ruby"), "", nil)
	assert.Error(t, err)
}

func TestRunNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewPistonClient(srv.URL, time.Second)
	_, err := client.Run(context.Background(), model.LanguagePython, "print(1)", []model.TestCase{
		{Input: "", ExpectedOutput: ""},
	})
	assert.Error(t, err)
}
