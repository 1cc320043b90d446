package harness

import (
	"github.com/roach88/cypherql/internal/translate"
)

// Result is the outcome of running a scenario.
type Result struct {
	Name string `json:"name"`

	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Statements are the translated root fields, empty on error.
	Statements []translate.Statement `json:"statements"`

	// ErrorCode is the code translation failed with, if it failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:       name,
		Pass:       true,
		Statements: []translate.Statement{},
		Errors:     []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
