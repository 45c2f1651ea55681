package update

import (
	"reflect"

	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/registry"
	"github.com/bittoy/reactive/subject"
)

// IDProvider assigns a stable wire identifier to a subject. Builder uses
// it whenever a property's current value references another subject.
type IDProvider interface {
	ID(s subject.Subject) string
}

// StateProvider lets a subject expose its full current property state for
// recursive inclusion (spec §4.10: "for each subject-valued property that
// changed, recursively include new subjects' full state"). A subject that
// doesn't implement it contributes only the properties explicitly passed
// to Builder.Build through a change batch.
type StateProvider interface {
	SubjectState() map[string]any
}

// Processor is a pluggable SubjectUpdateProcessor step (spec §4.10): it
// may rewrite a property update before emission, and may exclude a
// property from the update entirely.
type Processor interface {
	// IsIncluded reports whether property should appear in the update
	// at all.
	IsIncluded(property string) bool
	// Transform rewrites pu (e.g. renaming it, or changing its payload)
	// before it's recorded.
	Transform(subjectID, property string, pu SubjectPropertyUpdate) SubjectPropertyUpdate
}

// Builder constructs a SubjectUpdate from a batch of PropertyChange
// events, recursively including the full state of any newly-referenced
// subject (spec §4.10).
type Builder struct {
	ids        IDProvider
	processors []Processor
}

// NewBuilder builds a Builder using ids to name subjects and running every
// processor, in order, over each property update before recording it.
func NewBuilder(ids IDProvider, processors ...Processor) *Builder {
	return &Builder{ids: ids, processors: processors}
}

// Build produces a SubjectUpdate rooted at root from a batch of
// PropertyChange events, in order, grouping changes by subject identity
// and recursively including full state for any subject newly referenced
// by a changed property's value.
func (b *Builder) Build(root subject.Subject, changes []change.PropertyChange) SubjectUpdate {
	u := NewSubjectUpdate(b.ids.ID(root))
	visited := getVisited()
	defer putVisited(visited)

	for _, c := range changes {
		subjectID := b.ids.ID(c.Ref.Subject)
		property := c.Ref.Name
		if !b.included(property) {
			continue
		}
		pu, children := b.convert(c.NewValue)
		pu = b.transform(subjectID, property, pu)
		u.Set(subjectID, property, pu)
		visited[subjectID] = true
		for _, child := range children {
			b.includeState(u, child, visited)
		}
	}
	return u
}

func (b *Builder) included(property string) bool {
	for _, p := range b.processors {
		if !p.IsIncluded(property) {
			return false
		}
	}
	return true
}

func (b *Builder) transform(subjectID, property string, pu SubjectPropertyUpdate) SubjectPropertyUpdate {
	for _, p := range b.processors {
		pu = p.Transform(subjectID, property, pu)
	}
	return pu
}

func (b *Builder) includeState(u SubjectUpdate, s subject.Subject, visited map[string]bool) {
	id := b.ids.ID(s)
	if visited[id] {
		return
	}
	visited[id] = true
	sp, ok := s.(StateProvider)
	if !ok {
		return
	}
	for property, value := range sp.SubjectState() {
		if !b.included(property) {
			continue
		}
		pu, children := b.convert(value)
		pu = b.transform(id, property, pu)
		u.Set(id, property, pu)
		for _, child := range children {
			b.includeState(u, child, visited)
		}
	}
}

// convert inspects a raw property value and produces its wire
// representation plus the list of subjects it references (for recursive
// inclusion): a bare Subject becomes KindRef, a slice/array of subjects
// becomes KindList, a string-keyed map of subjects becomes KindDict, a
// non-subject map becomes KindAttrs, and anything else is carried as
// KindValue verbatim.
func (b *Builder) convert(value any) (SubjectPropertyUpdate, []subject.Subject) {
	if value == nil {
		return SubjectPropertyUpdate{Kind: KindValue}, nil
	}
	if s, ok := value.(subject.Subject); ok {
		return SubjectPropertyUpdate{Kind: KindRef, Ref: b.ids.ID(s)}, []subject.Subject{s}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		refs := registry.EnumerateReferences(value)
		if len(refs) == rv.Len() && rv.Len() > 0 {
			list := make([]string, rv.Len())
			children := make([]subject.Subject, 0, len(refs))
			for _, r := range refs {
				idx, _ := r.Index.(int)
				list[idx] = b.ids.ID(r.Child)
				children = append(children, r.Child)
			}
			return SubjectPropertyUpdate{Kind: KindList, List: list}, children
		}
		return SubjectPropertyUpdate{Kind: KindValue, Value: value}, nil
	case reflect.Map:
		refs := registry.EnumerateReferences(value)
		if len(refs) == rv.Len() && rv.Len() > 0 {
			dict := make(map[string]string, len(refs))
			children := make([]subject.Subject, 0, len(refs))
			for _, r := range refs {
				key, _ := r.Index.(string)
				dict[key] = b.ids.ID(r.Child)
				children = append(children, r.Child)
			}
			return SubjectPropertyUpdate{Kind: KindDict, Dict: dict}, children
		}
		return SubjectPropertyUpdate{Kind: KindAttrs, Attrs: toAttrMap(value)}, nil
	default:
		return SubjectPropertyUpdate{Kind: KindValue, Value: value}, nil
	}
}

func toAttrMap(value any) map[string]any {
	rv := reflect.ValueOf(value)
	out := make(map[string]any, rv.Len())
	for _, key := range rv.MapKeys() {
		if key.Kind() == reflect.String {
			out[key.String()] = rv.MapIndex(key).Interface()
		}
	}
	return out
}
