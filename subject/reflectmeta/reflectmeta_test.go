package reflectmeta

import (
	"testing"

	"github.com/bittoy/reactive/subject"
)

type motor struct {
	Speed    float64 `prop:"Speed"`
	Vendor   string  `prop:"Vendor,ro"`
	Enabled  bool    `prop:","`
	internal int
	Skipped  int `prop:"-"`
}

func TestDescribeDeclaresTaggedFields(t *testing.T) {
	table := subject.NewMetadataTable()
	Describe(&motor{}, table)

	names := table.Names()
	want := []string{"Speed", "Vendor", "Enabled"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestDescribeHonorsReadOnlyOption(t *testing.T) {
	table := subject.NewMetadataTable()
	Describe(&motor{}, table)

	vendor, ok := table.Get("Vendor")
	if !ok || !vendor.ReadOnly() {
		t.Fatalf("expected Vendor to be read-only, got %+v (found=%v)", vendor, ok)
	}
	speed, ok := table.Get("Speed")
	if !ok || speed.ReadOnly() || speed.Type != "float64" {
		t.Fatalf("expected writable float64 Speed, got %+v (found=%v)", speed, ok)
	}
}

func TestDescribeDefaultsEmptyTagNameToFieldName(t *testing.T) {
	table := subject.NewMetadataTable()
	Describe(&motor{}, table)

	enabled, ok := table.Get("Enabled")
	if !ok || enabled.Type != "bool" {
		t.Fatalf("expected bool Enabled from a name-less tag, got %+v (found=%v)", enabled, ok)
	}
}
