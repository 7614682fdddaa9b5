// Narrative events — transient per-tick occurrences curated by the focus manager.
package world

// Scope tags an event with the breadth of its impact. The focus manager
// weighs scopes when ranking events for the digest.
type Scope string

const (
	ScopeDistrict Scope = "district"
	ScopeFaction  Scope = "faction"
	ScopeCity     Scope = "city"
)

// Event is a narrative occurrence produced during a tick. Events live for
// exactly one tick unless the focus manager captures them into the digest.
type Event struct {
	Message    string `json:"message"`
	DistrictID string `json:"district_id,omitempty"`
	Scope      Scope  `json:"scope"`
}
