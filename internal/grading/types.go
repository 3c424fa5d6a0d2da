package grading

import "codequest/internal/practice"

// ProblemSpec is a problem as authored in a pack: the public problem plus
// the material the grader needs and the service never returns.
type ProblemSpec struct {
	practice.Problem `yaml:",inline"`

	Topics          []string           `yaml:"topics"`
	HiddenCases     []practice.Example `yaml:"hidden_cases"`
	Checks          []CheckSpec        `yaml:"checks"`
	TimeComplexity  string             `yaml:"time_complexity"`
	SpaceComplexity string             `yaml:"space_complexity"`
}

// CheckSpec is a source-level check. When a problem defines checks and all
// required ones pass, the submission is accepted.
type CheckSpec struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	Required      bool     `yaml:"required"`
	Languages     []string `yaml:"languages"`
	Pattern       string   `yaml:"pattern"`
	MinMatches    int      `yaml:"min_matches"`
	MaxLines      int      `yaml:"max_lines"`
	OnFailMessage string   `yaml:"on_fail_message"`
}

type Request struct {
	Spec     ProblemSpec
	Code     string
	Language string
	// Full grades against hidden cases too and reports efficiency.
	Full bool
}

type CheckResult struct {
	ID      string
	Type    string
	Passed  bool
	Message string
}

type evaluation struct {
	Passed  bool
	Message string
}

const (
	ErrorNotImplemented = "NotImplemented"
	ErrorEmpty          = "EmptySubmission"
	ErrorCheckFailed    = "CheckFailed"
	ErrorUnknownCheck   = "UnknownCheck"
)
