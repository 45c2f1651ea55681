package icontext

import (
	"sort"
	"strconv"

	"github.com/bittoy/reactive/ierrors"
)

// Ordering attribute interfaces a service MAY implement to influence its
// position within its kind's resolved sequence (spec §4.2's RunsFirst /
// RunsLast / RunsBefore(T) / RunsAfter(T) attributes). Services that
// implement none of these keep their registration order, exactly like the
// teacher's Aspect.Order() default ordering in types/aspect.go, generalized
// here to a full topological sort instead of a single integer priority.

// Named lets a service advertise a stable name so other services can refer
// to it in RunsBefore/RunsAfter. A service that doesn't implement Named can
// still declare constraints on named peers; it just can't be the target of
// one.
type Named interface {
	ServiceName() string
}

// RunsFirst marks a service to run before every other service of its kind
// that doesn't also request RunsFirst.
type RunsFirst interface {
	RunsFirst() bool
}

// RunsLast marks a service to run after every other service of its kind
// that doesn't also request RunsLast.
type RunsLast interface {
	RunsLast() bool
}

// RunsBefore names peer services (by Named.ServiceName) that must be
// ordered after this one.
type RunsBefore interface {
	RunsBefore() []string
}

// RunsAfter names peer services that must be ordered before this one.
type RunsAfter interface {
	RunsAfter() []string
}

type orderNode struct {
	index int
	name  string
	value any
	first bool
	last  bool
	after map[string]bool
}

func (n *orderNode) key() string {
	if n.name != "" {
		return n.name
	}
	return "#idx:" + strconv.Itoa(n.index)
}

// topoSort orders items (already in registration order) respecting the
// ordering attributes above, by a depth-first walk: items are visited in
// registration order, and each item's prerequisites are placed before it,
// visited in order of their keys (service name, or "#idx:N" for unnamed
// ones). Unconstrained items keep their registration order unless they
// are prerequisites of an earlier item; then they follow key order, which
// can differ from registration order. A dependency cycle is reported as
// ConfigurationError.
func topoSort(items []any) ([]any, error) {
	if len(items) < 2 {
		return items, nil
	}

	nodes := make([]*orderNode, len(items))
	byKey := map[string]*orderNode{}
	for i, it := range items {
		n := &orderNode{index: i, value: it, after: map[string]bool{}}
		if named, ok := it.(Named); ok {
			n.name = named.ServiceName()
		}
		if f, ok := it.(RunsFirst); ok {
			n.first = f.RunsFirst()
		}
		if l, ok := it.(RunsLast); ok {
			n.last = l.RunsLast()
		}
		nodes[i] = n
		byKey[n.key()] = n
	}

	for _, n := range nodes {
		if a, ok := n.value.(RunsAfter); ok {
			for _, dep := range a.RunsAfter() {
				n.after[dep] = true
			}
		}
		if b, ok := n.value.(RunsBefore); ok {
			for _, dep := range b.RunsBefore() {
				if target, ok := byKey[dep]; ok {
					target.after[n.key()] = true
				}
			}
		}
	}

	// RunsFirst/RunsLast are modeled as implicit edges: every non-first
	// node depends on every first node; every last node depends on every
	// non-last node.
	for _, n := range nodes {
		if n.first {
			continue
		}
		for _, other := range nodes {
			if other != n && other.first {
				n.after[other.key()] = true
			}
		}
	}
	for _, n := range nodes {
		if !n.last {
			continue
		}
		for _, other := range nodes {
			if other != n && !other.last {
				n.after[other.key()] = true
			}
		}
	}

	visited := make(map[*orderNode]int) // 0=unvisited 1=visiting 2=done
	var order []*orderNode
	var visit func(n *orderNode) error
	visit = func(n *orderNode) error {
		switch visited[n] {
		case 2:
			return nil
		case 1:
			return ierrors.NewConfigurationError("service ordering cycle detected", nil)
		}
		visited[n] = 1
		deps := make([]string, 0, len(n.after))
		for dep := range n.after {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			target, ok := byKey[dep]
			if !ok || target == n {
				continue
			}
			if err := visit(target); err != nil {
				return err
			}
		}
		visited[n] = 2
		order = append(order, n)
		return nil
	}

	// Visit in registration order; a node already placed as some earlier
	// node's prerequisite keeps that earlier position.
	for _, n := range nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	out := make([]any, len(order))
	for i, n := range order {
		out[i] = n.value
	}
	return out, nil
}
