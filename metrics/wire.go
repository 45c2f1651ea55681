package metrics

import (
	"github.com/bittoy/reactive/registry"
)

// ObserveRegistry subscribes to reg's lifecycle events and keeps
// SubjectsAttached in sync, incrementing on SubjectAttached and
// decrementing on SubjectDetached.
func ObserveRegistry(reg *registry.Registry) func() {
	return reg.Subscribe(func(e registry.Event) {
		switch e.(type) {
		case registry.SubjectAttached:
			SubjectsAttached.Inc()
		case registry.SubjectDetached:
			SubjectsAttached.Dec()
		}
	})
}
