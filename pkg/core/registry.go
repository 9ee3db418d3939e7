package core

import "strconv"

// BaseID is the first internal ID handed out by a Registry.
const BaseID InternalID = 100

// InternalID is the integer stand-in for an accession used in the engine's
// input and output files.
type InternalID int

func (id InternalID) String() string {
	return strconv.Itoa(int(id))
}

// Registry assigns internal IDs to accessions in order of first appearance.
// It is append-only and owned by a single pipeline run; it is not safe for
// concurrent use.
type Registry struct {
	ids        map[string]InternalID
	accessions []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[string]InternalID),
	}
}

// Register returns the ID of accession, assigning the next free one if the
// accession has not been seen before.
func (r *Registry) Register(accession string) InternalID {
	if id, ok := r.ids[accession]; ok {
		return id
	}
	id := BaseID + InternalID(len(r.accessions))
	r.ids[accession] = id
	r.accessions = append(r.accessions, accession)
	return id
}

// Lookup returns the ID of a registered accession.
func (r *Registry) Lookup(accession string) (InternalID, bool) {
	id, ok := r.ids[accession]
	return id, ok
}

// Resolve maps an internal ID back to its accession.
func (r *Registry) Resolve(id InternalID) (string, error) {
	idx := int(id - BaseID)
	if idx < 0 || idx >= len(r.accessions) {
		return "", &UnknownIdentifierError{ID: id}
	}
	return r.accessions[idx], nil
}

// Len returns the number of registered accessions.
func (r *Registry) Len() int {
	return len(r.accessions)
}

// Each calls fn for every registered accession in ID order.
func (r *Registry) Each(fn func(id InternalID, accession string)) {
	for i, acc := range r.accessions {
		fn(BaseID+InternalID(i), acc)
	}
}
