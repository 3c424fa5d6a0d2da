package practice

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// UnmarshalJSON accepts any casing; unknown values are kept verbatim.
func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = ParseDifficulty(raw)
	return nil
}

func ParseDifficulty(raw string) Difficulty {
	norm := strings.ToLower(strings.TrimSpace(raw))
	switch Difficulty(norm) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(norm)
	default:
		return Difficulty(strings.TrimSpace(raw))
	}
}

func (d Difficulty) Known() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Text is a display string that also accepts non-string JSON values
// (numbers, arrays, objects) and keeps their compact encoding.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

func (t Text) String() string { return string(t) }

type Example struct {
	Input          Text   `json:"input" yaml:"input"`
	ExpectedOutput Text   `json:"expected_output" yaml:"expected_output"`
	Explanation    string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Problem is immutable once received; the workspace only reads it.
type Problem struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	Description        string     `json:"description" yaml:"description"`
	Examples           []Example  `json:"examples" yaml:"examples"`
	Constraints        []string   `json:"constraints" yaml:"constraints"`
	StarterCode        string     `json:"starter_code" yaml:"starter_code"`
	OptimalSolution    string     `json:"optimal_solution,omitempty" yaml:"optimal_solution,omitempty"`
	OptimalExplanation string     `json:"optimal_explanation,omitempty" yaml:"optimal_explanation,omitempty"`
}

func (p Problem) HasOptimal() bool {
	return strings.TrimSpace(p.OptimalSolution) != ""
}
