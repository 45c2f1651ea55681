package icontext

import "testing"

type greeter interface{ Greet() string }

type simpleGreeter struct{ msg string }

func (s *simpleGreeter) Greet() string { return s.msg }

func TestGetServicesOrderAndDedup(t *testing.T) {
	root := New()
	shared := &simpleGreeter{msg: "shared"}
	AddServiceValue[greeter](root, shared)

	child := New()
	AddServiceValue[greeter](child, &simpleGreeter{msg: "local"})
	child.AddFallback(root)
	AddServiceValue[greeter](child, shared) // same instance registered twice

	got := GetServices[greeter](child)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated services, got %d", len(got))
	}
	if got[0].Greet() != "local" || got[1].Greet() != "shared" {
		t.Fatalf("unexpected order: %v, %v", got[0].Greet(), got[1].Greet())
	}
}

func TestGetServiceAmbiguous(t *testing.T) {
	c := New()
	AddServiceValue[greeter](c, &simpleGreeter{msg: "a"})
	AddServiceValue[greeter](c, &simpleGreeter{msg: "b"})
	if _, err := GetService[greeter](c); err == nil {
		t.Fatal("expected ConfigurationError for ambiguous resolution")
	}
}

func TestGetServiceMissing(t *testing.T) {
	c := New()
	if _, err := GetService[greeter](c); err == nil {
		t.Fatal("expected ConfigurationError for missing service")
	}
}

type orderedService struct {
	name          string
	first, last   bool
	before, after []string
}

func (o *orderedService) ServiceName() string  { return o.name }
func (o *orderedService) RunsFirst() bool      { return o.first }
func (o *orderedService) RunsLast() bool       { return o.last }
func (o *orderedService) RunsBefore() []string { return o.before }
func (o *orderedService) RunsAfter() []string  { return o.after }
func (o *orderedService) Greet() string        { return o.name }

func TestTopoSortRunsFirstLastBeforeAfter(t *testing.T) {
	c := New()
	AddServiceValue[greeter](c, &orderedService{name: "mid"})
	AddServiceValue[greeter](c, &orderedService{name: "z-last", last: true})
	AddServiceValue[greeter](c, &orderedService{name: "a-first", first: true})
	AddServiceValue[greeter](c, &orderedService{name: "before-mid", before: []string{"mid"}})

	got := GetServices[greeter](c)
	order := map[string]int{}
	for i, g := range got {
		order[g.Greet()] = i
	}
	if order["a-first"] != 0 {
		t.Fatalf("expected a-first to run first, order=%v", order)
	}
	if order["z-last"] != len(got)-1 {
		t.Fatalf("expected z-last to run last, order=%v", order)
	}
	if order["before-mid"] >= order["mid"] {
		t.Fatalf("expected before-mid before mid, order=%v", order)
	}
}

func TestTopoSortCycleIsConfigurationError(t *testing.T) {
	c := New()
	AddServiceValue[greeter](c, &orderedService{name: "x", after: []string{"y"}})
	AddServiceValue[greeter](c, &orderedService{name: "y", after: []string{"x"}})

	got, err := TryGetServices[greeter](c)
	if err == nil {
		t.Fatal("expected ConfigurationError for ordering cycle")
	}
	if len(got) != 2 {
		t.Fatalf("expected both services despite cycle (fallback order), got %d", len(got))
	}
}

func TestSetServicesReplacesPriorSet(t *testing.T) {
	c := New()
	AddServiceValue[greeter](c, &simpleGreeter{msg: "old-a"})
	AddServiceValue[greeter](c, &simpleGreeter{msg: "old-b"})

	SetServices[greeter](c, &simpleGreeter{msg: "new"})

	got := GetServices[greeter](c)
	if len(got) != 1 || got[0].Greet() != "new" {
		t.Fatalf("expected SetServices to replace the prior set entirely, got %v", got)
	}
}

func TestSetServicesDoesNotAffectFallback(t *testing.T) {
	root := New()
	AddServiceValue[greeter](root, &simpleGreeter{msg: "root"})

	child := New()
	child.AddFallback(root)
	AddServiceValue[greeter](child, &simpleGreeter{msg: "child"})

	SetServices[greeter](child, &simpleGreeter{msg: "child-v2"})

	got := GetServices[greeter](child)
	if len(got) != 2 || got[0].Greet() != "child-v2" || got[1].Greet() != "root" {
		t.Fatalf("expected only child's own services to be replaced, got %v", got)
	}
}
