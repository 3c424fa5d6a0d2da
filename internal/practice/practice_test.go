package practice

import (
	"encoding/json"
	"testing"
)

func TestProblemDecodesServiceFields(t *testing.T) {
	raw := `{
		"id": "p1",
		"title": "Two Sum",
		"difficulty": "Easy",
		"description": "Find two numbers.",
		"examples": [{"input": [2, 7, 11], "expected_output": "[0,1]", "explanation": "2+7"}],
		"constraints": ["n >= 2"],
		"starter_code": "def two_sum(nums, target):\n    pass",
		"optimal_solution": "def two_sum(nums, target): ...",
		"optimal_explanation": "hash map"
	}`
	var p Problem
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Difficulty != DifficultyEasy {
		t.Fatalf("expected easy difficulty, got %q", p.Difficulty)
	}
	if got := p.Examples[0].Input.String(); got != "[2,7,11]" {
		t.Fatalf("expected compact non-string input, got %q", got)
	}
	if p.Examples[0].ExpectedOutput != "[0,1]" {
		t.Fatalf("unexpected expected output %q", p.Examples[0].ExpectedOutput)
	}
	if !p.HasOptimal() {
		t.Fatalf("expected optimal solution to be present")
	}
}

func TestUnknownDifficultyKeptVerbatim(t *testing.T) {
	var p Problem
	if err := json.Unmarshal([]byte(`{"difficulty":"Brutal"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Difficulty != "Brutal" || p.Difficulty.Known() {
		t.Fatalf("expected verbatim unknown difficulty, got %q", p.Difficulty)
	}
}

func TestSolutionFileName(t *testing.T) {
	cases := map[string]string{
		"python":     "solution.py",
		"java":       "solution.java",
		"javascript": "solution.js",
		"c++":        "solution.cpp",
		"cobol":      "solution.py",
		"":           "solution.py",
	}
	for id, want := range cases {
		if got := SolutionFileName(id); got != want {
			t.Fatalf("SolutionFileName(%q)=%q want %q", id, got, want)
		}
	}
}

func TestNextLanguageCycles(t *testing.T) {
	seen := map[string]bool{}
	id := DefaultLanguageID
	for range Languages() {
		seen[id] = true
		id = NextLanguage(id).ID
	}
	if id != DefaultLanguageID || len(seen) != 4 {
		t.Fatalf("expected full cycle back to python, got %q after %d", id, len(seen))
	}
}

func TestResultHeadline(t *testing.T) {
	r := EvaluationResult{TestCases: []TestCaseResult{{Passed: true}, {Passed: false}}}
	if r.PassedCount() != 1 {
		t.Fatalf("expected one passed case")
	}
	if r.Headline() != "Some test cases failed" {
		t.Fatalf("unexpected headline %q", r.Headline())
	}
	r.Errors = []ErrorDetail{{Type: "SyntaxError", Message: "bad"}}
	if r.Headline() != "Solution failed" {
		t.Fatalf("unexpected headline %q", r.Headline())
	}
	r = EvaluationResult{Passed: true}
	if r.Headline() != "All test cases passed!" {
		t.Fatalf("unexpected headline %q", r.Headline())
	}
}
