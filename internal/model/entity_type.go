package model

// EntityType labels the kind of investor an extracted name reads as.
type EntityType string

// Entity type constants. Unknown is a valid terminal classification, not an
// error state.
const (
	EntityFoundation   EntityType = "foundation"
	EntityFamilyOffice EntityType = "family_office"
	EntityFund         EntityType = "fund"
	EntityCorporate    EntityType = "corporate"
	EntityIndividual   EntityType = "individual"
	EntityTrust        EntityType = "trust"
	EntityUnknown      EntityType = "unknown"
)

// IsOrganization reports whether the entity type reads as an organization
// rather than a person. Unknown entities are routed as organizations first
// since most filing-table rows are institutional holders.
func (t EntityType) IsOrganization() bool {
	return t != EntityIndividual
}

// Valid reports whether t is a member of the closed enumeration.
func (t EntityType) Valid() bool {
	switch t {
	case EntityFoundation, EntityFamilyOffice, EntityFund, EntityCorporate,
		EntityIndividual, EntityTrust, EntityUnknown:
		return true
	}
	return false
}
