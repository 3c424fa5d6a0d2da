package practice

type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type TestCaseResult struct {
	Input          Text `json:"input"`
	ExpectedOutput Text `json:"expected_output"`
	ActualOutput   Text `json:"actual_output"`
	Passed         bool `json:"passed"`
}

type EfficiencyReport struct {
	TimeComplexity         string `json:"time_complexity"`
	SpaceComplexity        string `json:"space_complexity"`
	OptimalTimeComplexity  string `json:"optimal_time_complexity"`
	OptimalSpaceComplexity string `json:"optimal_space_complexity"`
	Comparison             string `json:"comparison"`
}

// EvaluationResult is the outcome of a run or a submission. A non-nil result
// with Passed=false is a legitimate failed attempt, not an error.
type EvaluationResult struct {
	Passed     bool              `json:"passed"`
	Errors     []ErrorDetail     `json:"errors,omitempty"`
	TestCases  []TestCaseResult  `json:"test_cases"`
	Efficiency *EfficiencyReport `json:"efficiency,omitempty"`
}

func (r EvaluationResult) PassedCount() int {
	n := 0
	for _, tc := range r.TestCases {
		if tc.Passed {
			n++
		}
	}
	return n
}

func (r EvaluationResult) Headline() string {
	switch {
	case r.Passed:
		return "All test cases passed!"
	case len(r.Errors) > 0:
		return "Solution failed"
	default:
		return "Some test cases failed"
	}
}
