package update

import (
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/bittoy/reactive/subject"
)

// idDataKey is the DataMap key SubjectIDs stores its assigned identifier
// under, so a subject keeps the same wire id for its entire lifetime even
// across multiple SubjectUpdate builds.
const idDataKey = "update.subject-id"

// SubjectIDs is the default IDProvider: it lazily assigns each subject a
// v4 UUID the first time it's seen and caches it on the subject's own
// DataMap, grounded on gofrs/uuid/v5 the way source.NewOrigin uses it for
// origin tokens.
type SubjectIDs struct {
	mu sync.Mutex
}

// NewSubjectIDs builds an empty SubjectIDs provider.
func NewSubjectIDs() *SubjectIDs {
	return &SubjectIDs{}
}

// ID implements IDProvider.
func (p *SubjectIDs) ID(s subject.Subject) string {
	if existing, ok := s.Data().Get(idDataKey); ok {
		if id, ok := existing.(string); ok {
			return id
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := s.Data().Get(idDataKey); ok {
		if id, ok := existing.(string); ok {
			return id
		}
	}
	id := uuid.Must(uuid.NewV4()).String()
	s.Data().Set(idDataKey, id)
	return id
}
