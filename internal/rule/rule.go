package rule

import "github.com/leavex/mepsonx/internal/lint"

// Rule is a single check run against a ranking report.
type Rule interface {
	ID() string
	Name() string
	Check(f *lint.File) []lint.Diagnostic
}

// FixableRule is a Rule that can also rewrite the report to remove its
// own violations.
type FixableRule interface {
	Rule
	Fix(f *lint.File) []byte
}

// Configurable is implemented by rules that have user-tunable settings.
type Configurable interface {
	ApplySettings(settings map[string]any) error
	DefaultSettings() map[string]any
}

// Defaultable is implemented by rules that are not enabled unless a
// config turns them on.
type Defaultable interface {
	EnabledByDefault() bool
}

// EnabledByDefault reports whether r runs without explicit configuration.
func EnabledByDefault(r Rule) bool {
	if d, ok := r.(Defaultable); ok {
		return d.EnabledByDefault()
	}
	return true
}
