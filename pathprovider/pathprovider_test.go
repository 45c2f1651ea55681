package pathprovider

import (
	"errors"
	"testing"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/registry"
	"github.com/bittoy/reactive/subject"
)

type node struct {
	*subject.Base
	children []subject.Subject
}

func newNode() *node {
	n := &node{Base: subject.NewBase()}
	n.BindSelf(n)
	return n
}

func (n *node) WalkChildren() []registry.ChildEdge {
	out := make([]registry.ChildEdge, 0, len(n.children))
	for i, c := range n.children {
		out = append(out, registry.ChildEdge{Property: "Children", Index: i, Child: c})
	}
	return out
}

func TestDefaultPathProviderRendersAncestorChain(t *testing.T) {
	reg := registry.New()
	root := newNode()
	child := newNode()
	root.children = []subject.Subject{child}
	reg.AttachRoot(root)

	pp := NewDefault(reg, "", "/")
	path, ok := pp.Path(subject.Reference{Subject: child, Name: "Name"})
	if !ok {
		t.Fatal("expected path to be recognized")
	}
	if path != "Children[0]/Name" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestDefaultPathProviderRespectsPrefix(t *testing.T) {
	reg := registry.New()
	root := newNode()
	reg.AttachRoot(root)

	pp := NewDefault(reg, "devices/", "/")
	path, ok := pp.Path(subject.Reference{Subject: root, Name: "Name"})
	if !ok {
		t.Fatalf("expected prefix path to be recognized, got %q", path)
	}
	if path != "devices/Name" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestResolveReportsNotFoundOutsidePrefix(t *testing.T) {
	r := NewResolver("/")

	segments, err := r.Resolve("plc/Motor/Speed", "plc/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 || segments[0] != "Motor" || segments[1] != "Speed" {
		t.Fatalf("unexpected segments: %v", segments)
	}

	_, err = r.Resolve("other/Motor/Speed", "plc/")
	var nf *ierrors.NotFoundError
	if !errors.As(err, &nf) || nf.Path != "other/Motor/Speed" {
		t.Fatalf("expected NotFoundError carrying the path, got %v", err)
	}
}
