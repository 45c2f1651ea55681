package subject

// PropertyMetadata is the static description of one intercepted property:
// its name, declared type token, attribute list, and getter/setter
// trampolines (spec §3). Type is deliberately a string rather than
// reflect.Type so connectors (which are language-neutral collaborators in
// the spec) can carry a wire type name without importing reflection.
type PropertyMetadata struct {
	Name       string
	Type       string
	Attributes []any
	HasGet     bool
	HasSet     bool
	// IsDerived is true iff HasGet && !HasSet && the getter is a pure
	// function of other properties (spec §3). Subjects with a derived
	// property register it through MetadataTable.Declare with IsDerived
	// set; dependency tracking starts only when the property is also
	// registered with derived.Tracker.Register.
	IsDerived bool
}

// ReadOnly reports whether this property can only be read.
func (m PropertyMetadata) ReadOnly() bool { return m.HasGet && !m.HasSet }

// MetadataTable is the ordered name→metadata map a subject exposes (spec
// §3's Subject.properties). Ordering is registration order, matching the
// teacher's SafeComponentSlice discipline of preserving insertion order
// under a lock.
type MetadataTable struct {
	names  []string
	byName map[string]PropertyMetadata
}

func NewMetadataTable() *MetadataTable {
	return &MetadataTable{byName: map[string]PropertyMetadata{}}
}

// Declare registers (or replaces) a property's metadata.
func (t *MetadataTable) Declare(meta PropertyMetadata) {
	if _, exists := t.byName[meta.Name]; !exists {
		t.names = append(t.names, meta.Name)
	}
	t.byName[meta.Name] = meta
}

// Get returns the metadata for name and whether it was found.
func (t *MetadataTable) Get(name string) (PropertyMetadata, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Names returns property names in declaration order.
func (t *MetadataTable) Names() []string {
	return append([]string(nil), t.names...)
}

// All returns a declaration-ordered snapshot of every PropertyMetadata.
func (t *MetadataTable) All() []PropertyMetadata {
	out := make([]PropertyMetadata, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.byName[n])
	}
	return out
}

// Reference is the pair (subject, property-name) — spec §3's
// PropertyReference. Equality is identity on Subject plus string equality
// on Name.
type Reference struct {
	Subject Subject
	Name    string
}

// Equal compares two references by subject identity and property name.
func (r Reference) Equal(other Reference) bool {
	return r.Subject == other.Subject && r.Name == other.Name
}
