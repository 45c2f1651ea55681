package subject

import "sync"

// dataKey is the composite key DataMap indexes by: an optional property
// name (empty string means subject-scoped, not property-scoped) plus a
// string key, exactly the "(property-name-or-null, string-key)" pairing
// spec §3 assigns to Subject.data.
type dataKey struct {
	property string
	key      string
}

// DataMap is the per-subject concurrent scratch store used as a side-table
// keyed by (property, key); update.SubjectIDs keeps subject wire ids in it. It
// never blocks a concurrent reader behind a writer for long: every
// operation is a single map access under one mutex, matching the
// "concurrent map" requirement in spec §5.
type DataMap struct {
	mu   sync.RWMutex
	data map[dataKey]any
}

func NewDataMap() *DataMap {
	return &DataMap{data: map[dataKey]any{}}
}

// Get reads a subject-scoped value (property = "").
func (d *DataMap) Get(key string) (any, bool) {
	return d.GetProperty("", key)
}

// Set writes a subject-scoped value.
func (d *DataMap) Set(key string, value any) {
	d.SetProperty("", key, value)
}

// GetProperty reads a value scoped to a specific property name.
func (d *DataMap) GetProperty(property, key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[dataKey{property, key}]
	return v, ok
}

// SetProperty writes a value scoped to a specific property name.
func (d *DataMap) SetProperty(property, key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[dataKey{property, key}] = value
}

// Delete removes a subject-scoped value.
func (d *DataMap) Delete(key string) {
	d.DeleteProperty("", key)
}

// DeleteProperty removes a property-scoped value.
func (d *DataMap) DeleteProperty(property, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, dataKey{property, key})
}
