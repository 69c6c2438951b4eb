package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Workers int           // Concurrent creates fired at the same name
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every check, not just failures
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// Report holds the results of a run.
type Report struct {
	Checks []CheckResult

	// RaceDuplicates counts extra records created by concurrent creates of
	// one name. Non-zero values are reported, not failed.
	RaceDuplicates int

	StartTime time.Time
	Duration  time.Duration
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// envelope mirrors the API response shape.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resource describes one catalog collection under test.
type resource struct {
	name    string
	path    string
	valid   func(name string) map[string]any
	invalid map[string]any
}

var resources = []resource{
	{
		name: "credit_package",
		path: "/api/credit-package",
		valid: func(name string) map[string]any {
			return map[string]any{"name": name, "credit_amount": 100, "price": 500}
		},
		invalid: map[string]any{"name": "", "credit_amount": 100, "price": 500},
	},
	{
		name: "skill",
		path: "/api/coaches/skill",
		valid: func(name string) map[string]any {
			return map[string]any{"name": name}
		},
		invalid: map[string]any{"name": "   "},
	},
}
