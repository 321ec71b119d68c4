package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

var instance = validator.New(validator.WithRequiredStructEnabled())

// Struct runs the tag-based rules on a request payload and flattens the
// failures into field/reason pairs for the error envelope.
func Struct(payload any) []Issue {
	err := instance.Struct(payload)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Issue{{Field: "", Reason: err.Error()}}
	}

	issues := make([]Issue, 0, len(violations))
	for _, violation := range violations {
		reason := violation.Tag()
		if param := violation.Param(); param != "" {
			reason += "=" + param
		}
		issues = append(issues, Issue{
			Field:  fieldPath(violation.StructNamespace()),
			Reason: reason,
		})
	}
	return issues
}

// fieldPath drops the root struct name so issues read "Name", not
// "CreateRoleRequest.Name".
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
