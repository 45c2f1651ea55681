package update

import "strings"

// NoopProcessor includes every property unchanged. Useful as a base to
// embed when only one of IsIncluded/Transform needs overriding.
type NoopProcessor struct{}

func (NoopProcessor) IsIncluded(string) bool { return true }
func (NoopProcessor) Transform(_, _ string, pu SubjectPropertyUpdate) SubjectPropertyUpdate {
	return pu
}

// ExcludeProcessor drops any property whose name is in Names from the
// update entirely.
type ExcludeProcessor struct {
	NoopProcessor
	Names map[string]bool
}

// NewExcludeProcessor builds an ExcludeProcessor over the given property
// names.
func NewExcludeProcessor(names ...string) *ExcludeProcessor {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &ExcludeProcessor{Names: set}
}

func (p *ExcludeProcessor) IsIncluded(property string) bool {
	return !p.Names[property]
}

// SnakeCaseProcessor includes every property and returns each update
// unchanged: Processor.Transform cannot rename property keys, so no key
// is converted to snake_case by it. Callers rename keys with ToSnakeCase.
type SnakeCaseProcessor struct {
	NoopProcessor
}

func (SnakeCaseProcessor) IsIncluded(string) bool { return true }

func (SnakeCaseProcessor) Transform(subjectID, property string, pu SubjectPropertyUpdate) SubjectPropertyUpdate {
	return pu
}

// ToSnakeCase converts a PascalCase/camelCase identifier to snake_case.
// Builder callers that want wire property names (not just values)
// renamed should key SubjectUpdate.Subjects with ToSnakeCase(property)
// themselves, since Processor.Transform only rewrites the value payload.
func ToSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
