package httphandler

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles a raw request-body schema at route-registration
// time. A schema that does not compile is a programming error, so this
// panics at startup rather than failing requests later.
func compileSchema(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := compiler.AddResource(url, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return compiler.MustCompile(url)
}

// schemaIssues flattens a validation error into per-field messages keyed by
// the offending instance path, or "body" for top-level failures.
func schemaIssues(err error) map[string][]string {
	issues := make(map[string][]string)
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		issues["body"] = []string{err.Error()}
		return issues
	}
	collectLeaves(validationErr, issues)
	return issues
}

func collectLeaves(err *jsonschema.ValidationError, issues map[string][]string) {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		field = strings.ReplaceAll(field, "/", ".")
		if field == "" {
			field = "body"
		}
		issues[field] = append(issues[field], err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, issues)
	}
}
