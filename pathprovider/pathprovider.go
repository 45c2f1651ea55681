// Package pathprovider maps a PropertyReference to a segmented path
// string and back, respecting a source's configured prefix and delimiter
// (spec §4.10), grounded on the teacher's Chain/Node DSL encode-decode
// contract in spirit — here the "document" being addressed is the subject
// graph's registry parent chain instead of a parsed rule-chain file.
package pathprovider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/registry"
	"github.com/bittoy/reactive/subject"
)

// PathProvider maps between a PropertyReference and its wire path.
type PathProvider interface {
	// Path returns the segmented path for ref, and whether ref lies
	// under this provider's configured prefix at all.
	Path(ref subject.Reference) (string, bool)
}

// Default is the spec's default PathProvider: it renders a property's
// path as its ancestor chain (via the registry's parent tracker) joined
// by Delimiter, with collection/dictionary indices rendered as "[i]" or
// "[key]", and recognizes only paths starting with Prefix.
type Default struct {
	Registry  *registry.Registry
	Delimiter string
	Prefix    string
}

// NewDefault builds a Default PathProvider. An empty delimiter defaults
// to "/".
func NewDefault(reg *registry.Registry, prefix, delimiter string) *Default {
	if delimiter == "" {
		delimiter = "/"
	}
	return &Default{Registry: reg, Delimiter: delimiter, Prefix: prefix}
}

// Path implements PathProvider. It picks the first root-to-subject path
// the registry's parent tracker reports (ForAllPaths; cycles are already
// broken there) and renders it root-first, then appends ref.Name as the
// final segment.
func (d *Default) Path(ref subject.Reference) (string, bool) {
	segments := d.segmentsFor(ref.Subject)
	segments = append(segments, ref.Name)
	path := d.Prefix + strings.Join(segments, d.Delimiter)
	if d.Prefix != "" && !strings.HasPrefix(path, d.Prefix) {
		return "", false
	}
	return path, true
}

func (d *Default) segmentsFor(s subject.Subject) []string {
	paths := d.Registry.ForAllPaths(s)
	if len(paths) == 0 {
		return nil
	}
	edges := paths[0]
	segments := make([]string, 0, len(edges))
	for _, e := range edges {
		seg := e.Property
		if e.Index != nil {
			seg += renderIndex(e.Index)
		}
		segments = append(segments, seg)
	}
	return segments
}

func renderIndex(index any) string {
	switch v := index.(type) {
	case int:
		return "[" + strconv.Itoa(v) + "]"
	case string:
		return "[" + v + "]"
	default:
		return fmt.Sprintf("[%v]", v)
	}
}

// Resolver resolves a path string back to a subject, given a lookup of
// subject by wire id — the inverse direction connectors need when
// applying an inbound SubjectPropertyUpdate whose path names a nested
// subject rather than the graph root.
type Resolver struct {
	Delimiter string
}

// NewResolver builds a Resolver using delimiter ("/" if empty) to split
// incoming paths into segments.
func NewResolver(delimiter string) *Resolver {
	if delimiter == "" {
		delimiter = "/"
	}
	return &Resolver{Delimiter: delimiter}
}

// Resolve is Segments with the failure reported as the NotFoundError a
// connector translates to a PropertyNotFound wire failure (spec §7).
func (r *Resolver) Resolve(path, prefix string) ([]string, error) {
	segments, ok := r.Segments(path, prefix)
	if !ok {
		return nil, ierrors.NewNotFoundError(path)
	}
	return segments, nil
}

// Segments splits path into its delimiter-separated parts, stripping
// prefix first if present.
func (r *Resolver) Segments(path, prefix string) ([]string, bool) {
	if prefix != "" {
		if !strings.HasPrefix(path, prefix) {
			return nil, false
		}
		path = strings.TrimPrefix(path, prefix)
	}
	if path == "" {
		return nil, true
	}
	return strings.Split(path, r.Delimiter), true
}
