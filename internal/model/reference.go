package model

// ReferenceKind distinguishes organization entries from person entries in
// the reference list.
type ReferenceKind string

const (
	// KindOrganization marks an organization entry.
	KindOrganization ReferenceKind = "organization"
	// KindPerson marks a person entry.
	KindPerson ReferenceKind = "person"
)

// ReferenceEntry is one known organization or person from the relationship
// management system.
type ReferenceEntry struct {
	ID     string
	Name   string
	Status string
	Kind   ReferenceKind
}

// ReferenceIndex is a read-only snapshot of the reference list taken at run
// start. Matching never mutates it, so it is safe for concurrent reads.
type ReferenceIndex struct {
	Organizations []ReferenceEntry
	Persons       []ReferenceEntry
}

// NewReferenceIndex partitions entries by kind.
func NewReferenceIndex(entries []ReferenceEntry) *ReferenceIndex {
	idx := &ReferenceIndex{}
	for _, e := range entries {
		if e.Kind == KindPerson {
			idx.Persons = append(idx.Persons, e)
		} else {
			idx.Organizations = append(idx.Organizations, e)
		}
	}
	return idx
}

// Size returns the total number of entries in the snapshot.
func (i *ReferenceIndex) Size() int {
	return len(i.Organizations) + len(i.Persons)
}
