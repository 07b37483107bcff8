package rag

import (
	"fmt"
	"strings"

	"repochat/internal/logger"
)

const qaPrompt = "Context:\n%s\n\nQuestion: %s\nAnswer:"

const testGenPrompt = "Generate a unit test for the following code:\n%s\nAnswer:"

// testGenPhrase routes a question into test-generation mode when present.
const testGenPhrase = "generate unit test"

// Mode is the detected intent of a question.
type Mode int

const (
	ModeQA Mode = iota
	ModeTestGen
)

func (m Mode) String() string {
	if m == ModeTestGen {
		return "test-generation"
	}
	return "qa"
}

// DetectMode classifies a question by a case-insensitive substring match.
// It is deliberately a single hardcoded rule kept behind this function so
// a real classifier could replace it without touching prompt composition.
func DetectMode(question string) Mode {
	if strings.Contains(strings.ToLower(question), testGenPhrase) {
		return ModeTestGen
	}
	return ModeQA
}

// Completer is the language-model collaborator: a synchronous single-turn
// completion.
type Completer interface {
	Complete(prompt string) (string, error)
}

// TestRunner persists generated test code and executes it.
type TestRunner interface {
	// Persist writes the generated test and returns the file path.
	Persist(content string) (string, error)
	// Run executes the test file, returning its combined output and exit
	// status.
	Run(path string) (output string, exitCode int, err error)
}

// Response is the outcome of one answered question.
type Response struct {
	Mode   Mode
	Answer string
	// Test-generation fields; zero-valued in Q&A mode.
	TestFile     string
	TestOutput   string
	TestExitCode int
	// Degraded is set when the generated test could not be persisted or
	// executed; Answer still carries the generated text.
	Degraded       bool
	DegradedReason string
}

// Answerer composes retrieved context with the user's question and
// delegates to the language model.
type Answerer struct {
	Retriever *Retriever
	LLM       Completer
	Runner    TestRunner
	TopK      int
}

// Answer retrieves context for the question, routes it by intent, and
// returns the model's response. In test-generation mode the generated
// test is persisted and executed; persistence or execution failures
// degrade the response rather than failing it.
func (a *Answerer) Answer(question string) (*Response, error) {
	results, err := a.Retriever.Retrieve(question, a.TopK)
	if err != nil {
		return nil, err
	}
	context := RenderContext(results)

	switch DetectMode(question) {
	case ModeTestGen:
		return a.generateTest(context)
	default:
		answer, err := a.LLM.Complete(fmt.Sprintf(qaPrompt, context, question))
		if err != nil {
			return nil, fmt.Errorf("language model: %w", err)
		}
		return &Response{Mode: ModeQA, Answer: answer}, nil
	}
}

func (a *Answerer) generateTest(context string) (*Response, error) {
	generated, err := a.LLM.Complete(fmt.Sprintf(testGenPrompt, context))
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}

	resp := &Response{Mode: ModeTestGen, Answer: generated}
	if a.Runner == nil {
		resp.Degraded = true
		resp.DegradedReason = "no test runner configured"
		return resp, nil
	}

	path, err := a.Runner.Persist(generated)
	if err != nil {
		logger.Warn("could not persist generated test: %v", err)
		resp.Degraded = true
		resp.DegradedReason = fmt.Sprintf("write test file: %v", err)
		return resp, nil
	}
	resp.TestFile = path

	output, code, err := a.Runner.Run(path)
	if err != nil {
		logger.Warn("could not execute generated test: %v", err)
		resp.Degraded = true
		resp.DegradedReason = fmt.Sprintf("run test: %v", err)
		return resp, nil
	}
	resp.TestOutput = output
	resp.TestExitCode = code
	return resp, nil
}
