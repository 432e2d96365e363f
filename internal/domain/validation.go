package domain

// ValidationResult is the outcome of a field validator.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// NewValidationResult normalises nil error lists to empty ones.
func NewValidationResult(valid bool, errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: valid, Errors: errs}
}
