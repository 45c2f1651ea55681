// Package reflectmeta builds a subject.MetadataTable from a tagged Go
// struct at runtime, for subjects that opt out of hand-written or
// generated trampolines (spec §4.1/§9: "partial property" code generation
// is out of scope; manual wiring, codegen, or runtime reflection are all
// conforming). It is grounded on github.com/fatih/structs, the same
// reflection-over-struct-tags approach the teacher pulls in for
// Configuration binding.
package reflectmeta

import (
	"strings"

	"github.com/fatih/structs"

	"github.com/bittoy/reactive/subject"
)

// TagName is the struct tag reflectmeta reads: `prop:"name,ro"` declares a
// property named "name"; the "ro" option marks it read-only (HasSet=false).
const TagName = "prop"

// Describe walks target's exported fields tagged `prop:"..."` and declares
// matching PropertyMetadata into table. It does not wire getters/setters —
// that remains the caller's responsibility via pipeline.Property[T], since
// reflectmeta only replaces the metadata-table half of codegen, not the
// interceptor trampoline half.
func Describe(target any, table *subject.MetadataTable) {
	s := structs.New(target)
	for _, f := range s.Fields() {
		tag := f.Tag(TagName)
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" {
			name = f.Name()
		}
		readOnly := false
		for _, opt := range parts[1:] {
			if opt == "ro" {
				readOnly = true
			}
		}
		table.Declare(subject.PropertyMetadata{
			Name:   name,
			Type:   f.Kind().String(),
			HasGet: true,
			HasSet: !readOnly,
		})
	}
}
