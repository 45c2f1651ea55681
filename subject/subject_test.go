package subject

import (
	"testing"

	"github.com/bittoy/reactive/icontext"
)

type stubSubject struct {
	*Base
}

func newStub() *stubSubject {
	s := &stubSubject{Base: NewBase()}
	s.BindSelf(s)
	return s
}

func TestAttachHookFiresWithOuterIdentity(t *testing.T) {
	var seen Subject
	AttachHook = func(s Subject, old, new *icontext.Context) { seen = s }
	defer func() { AttachHook = nil }()

	s := newStub()
	ctx := icontext.New()
	s.SetContext(ctx)

	if seen != Subject(s) {
		t.Fatalf("AttachHook saw %#v, want the outer stubSubject", seen)
	}
}

func TestSetContextIdempotent(t *testing.T) {
	calls := 0
	AttachHook = func(Subject, *icontext.Context, *icontext.Context) { calls++ }
	defer func() { AttachHook = nil }()

	s := newStub()
	ctx := icontext.New()
	s.SetContext(ctx)
	s.SetContext(ctx)
	if calls != 1 {
		t.Fatalf("expected 1 AttachHook call for idempotent SetContext, got %d", calls)
	}
}

func TestMetadataTableOrderPreserved(t *testing.T) {
	tbl := NewMetadataTable()
	tbl.Declare(PropertyMetadata{Name: "b", HasGet: true, HasSet: true})
	tbl.Declare(PropertyMetadata{Name: "a", HasGet: true, HasSet: true})
	tbl.Declare(PropertyMetadata{Name: "b", HasGet: true, HasSet: true, Type: "updated"})

	names := tbl.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("unexpected declaration order: %v", names)
	}
	meta, _ := tbl.Get("b")
	if meta.Type != "updated" {
		t.Fatalf("expected re-declare to update metadata in place, got %+v", meta)
	}
}

func TestDataMapPropertyScoping(t *testing.T) {
	d := NewDataMap()
	d.Set("k", 1)
	d.SetProperty("FirstName", "k", 2)

	if v, ok := d.Get("k"); !ok || v != 1 {
		t.Fatalf("subject-scoped get failed: %v %v", v, ok)
	}
	if v, ok := d.GetProperty("FirstName", "k"); !ok || v != 2 {
		t.Fatalf("property-scoped get failed: %v %v", v, ok)
	}
}
