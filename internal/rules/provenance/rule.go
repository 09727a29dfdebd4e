package provenance

import (
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/leavex/mepsonx/internal/lint"
	"github.com/leavex/mepsonx/internal/rule"
)

func init() {
	rule.Register(&Rule{Required: []string{"generated", "source"}})
}

// Rule checks that a report starts with front matter naming when and
// from what data it was generated. It is off unless enabled in config.
//
// Schema, when set, is CUE the front matter must unify with, for example
// `records: int & >0`.
type Rule struct {
	Required []string
	Schema   string
}

// ID implements rule.Rule.
func (r *Rule) ID() string { return "MX006" }

// Name implements rule.Rule.
func (r *Rule) Name() string { return "report-provenance" }

// EnabledByDefault implements rule.Defaultable.
func (r *Rule) EnabledByDefault() bool { return false }

// ApplySettings implements rule.Configurable.
func (r *Rule) ApplySettings(settings map[string]any) error {
	for k, v := range settings {
		switch k {
		case "required":
			keys, err := rule.StringsSetting(v)
			if err != nil {
				return fmt.Errorf("report-provenance: required: %w", err)
			}
			r.Required = keys
		case "schema":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("report-provenance: schema must be a string, got %T", v)
			}
			if err := compileSchema(s); err != nil {
				return fmt.Errorf("report-provenance: %w", err)
			}
			r.Schema = s
		default:
			return fmt.Errorf("report-provenance: unknown setting %q", k)
		}
	}
	return nil
}

// DefaultSettings implements rule.Configurable.
func (r *Rule) DefaultSettings() map[string]any {
	return map[string]any{
		"required": []string{"generated", "source"},
		"schema":   "",
	}
}

// Check implements rule.Rule.
func (r *Rule) Check(f *lint.File) []lint.Diagnostic {
	diag := func(format string, args ...any) lint.Diagnostic {
		return lint.Diagnostic{
			File:     f.Path,
			Line:     1,
			Column:   1,
			RuleID:   r.ID(),
			RuleName: r.Name(),
			Severity: lint.Error,
			Message:  fmt.Sprintf(format, args...),
		}
	}

	var meta map[string]any
	ok, err := f.DecodeFrontMatter(&meta)
	if err != nil {
		return []lint.Diagnostic{diag("front matter is not valid YAML: %v", err)}
	}
	if !ok {
		return []lint.Diagnostic{diag("report has no provenance front matter")}
	}

	var diags []lint.Diagnostic
	for _, key := range r.Required {
		v, present := meta[key]
		if !present || v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
			diags = append(diags, diag("front matter is missing %q", key))
		}
	}
	if err := validateSchema(r.Schema, meta); err != nil {
		diags = append(diags, diag("front matter does not match schema: %v", err))
	}
	return diags
}

func compileSchema(schema string) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}
	v := cuecontext.New().CompileString(schema)
	if err := v.Err(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

// validateSchema unifies meta with schema and requires the result to be
// concrete, so fields the schema names must be present.
func validateSchema(schema string, meta map[string]any) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if meta == nil {
		meta = map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("serialize front matter: %w", err)
	}
	dataVal := ctx.CompileBytes(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("compile front matter: %w", err)
	}

	return schemaVal.Unify(dataVal).Validate(cue.Concrete(true))
}
