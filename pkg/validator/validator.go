package validator

import (
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

const (
	MaxTitleLength       = 50
	MaxDescriptionLength = 200
)

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Lengths are counted in characters, not bytes.
var validate = playground.New()

func ValidTitle(title string) bool {
	return validate.Var(title, "required,max=50") == nil
}

func ValidDescription(description string) bool {
	return validate.Var(description, "max=200") == nil
}

func ValidCategory(category string) bool {
	return validate.Var(category, "required") == nil
}

func ValidateEmail(email string) ValidationErrors {
	errs := make(ValidationErrors)
	if validate.Var(strings.TrimSpace(email), "required") != nil {
		errs.Add("email", "Email is required")
	}
	return errs
}

// ValidateTask applies the create rules. A nil field is absent.
func ValidateTask(title, description, category *string) ValidationErrors {
	errs := make(ValidationErrors)

	if title != nil && !ValidTitle(*title) {
		if *title == "" {
			errs.Add("title", "Title is required")
		} else {
			errs.Add("title", "Title must be at most 50 characters")
		}
	}

	if description != nil && !ValidDescription(*description) {
		errs.Add("description", "Description must be at most 200 characters")
	}

	if category != nil && !ValidCategory(*category) {
		errs.Add("category", "Category must not be empty")
	}

	return errs
}
