// Package update implements the wire-format-neutral SubjectUpdate diff
// tree (spec §4.10/§6) and its JSON encoding, the property-graph analogue
// of the teacher's Chain/Node DSL encode-decode contract
// (types.Parser/engine/parser.go's DecodeChain/EncodeChain pair).
package update

import "encoding/json"

// Kind discriminates the shape of one SubjectPropertyUpdate entry.
type Kind string

const (
	// KindValue is a plain scalar or JSON-serializable value.
	KindValue Kind = "value"
	// KindRef is a single subject-valued property, carrying the
	// referenced subject's id; that subject's own state is included
	// under Subjects if it hasn't already been emitted in this update.
	KindRef Kind = "ref"
	// KindList is an ordered collection of subject references.
	KindList Kind = "list"
	// KindDict is a string-keyed collection of subject references.
	KindDict Kind = "dict"
	// KindAttrs is a plain attribute bag with no subject references
	// (e.g. metadata), carried verbatim.
	KindAttrs Kind = "attrs"
)

// SubjectPropertyUpdate is one property entry within a subject's update
// (spec §6's `{"kind": ...}` wire object).
type SubjectPropertyUpdate struct {
	Kind  Kind              `json:"kind"`
	Value any               `json:"value,omitempty"`
	Ref   string            `json:"ref,omitempty"`
	List  []string          `json:"list,omitempty"`
	Dict  map[string]string `json:"dict,omitempty"`
	Attrs map[string]any    `json:"attrs,omitempty"`
}

// SubjectUpdate is the full diff tree: a root subject id plus, for every
// subject touched by the change batch, its changed properties (spec §6's
// `{"root": "id", "subjects": {...}}` wire object).
type SubjectUpdate struct {
	Root     string                                      `json:"root"`
	Subjects map[string]map[string]SubjectPropertyUpdate `json:"subjects"`
}

// Encode serializes u to its JSON wire representation.
func Encode(u SubjectUpdate) ([]byte, error) {
	return json.Marshal(u)
}

// Decode parses a SubjectUpdate from its JSON wire representation.
func Decode(data []byte) (SubjectUpdate, error) {
	var u SubjectUpdate
	err := json.Unmarshal(data, &u)
	return u, err
}

// NewSubjectUpdate builds an empty SubjectUpdate rooted at root.
func NewSubjectUpdate(root string) SubjectUpdate {
	return SubjectUpdate{Root: root, Subjects: map[string]map[string]SubjectPropertyUpdate{}}
}

// Set records one property update for subjectID, creating the subject's
// entry if this is its first property in u.
func (u SubjectUpdate) Set(subjectID, property string, pu SubjectPropertyUpdate) {
	props, ok := u.Subjects[subjectID]
	if !ok {
		props = map[string]SubjectPropertyUpdate{}
		u.Subjects[subjectID] = props
	}
	props[property] = pu
}
