package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the outcome and every assertion matched.
	Pass bool `json:"pass"`

	// Session is the fixed session id the compilation ran under.
	Session string `json:"session"`

	// ErrorCode is the engine or validation code of a failed compilation.
	ErrorCode string `json:"error_code,omitempty"`

	// Function is the name of the exported entry function, if code was emitted.
	Function string `json:"function,omitempty"`

	// IR is the module text of a successful compilation.
	IR string `json:"ir"`

	// Trace is the diagnostic log, one event per line.
	Trace []string `json:"trace"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
