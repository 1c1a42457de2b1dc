package model

import "time"

// AvailabilityWindow is a server-reported half-open interval [Start, End)
// during which a field can be booked.  Both instants are absolute.
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FieldAvailability groups the availability windows reported for one field
// on one date.  It is the canonical form of the availability query's data
// items and of realtime update payloads.
type FieldAvailability struct {
	FieldID uint64               `json:"fieldId"`
	Windows []AvailabilityWindow `json:"availableTimeSlots"`
}

// Pair is the (branch, date) a booking view is looking at.  Date is a local
// calendar date formatted YYYY-MM-DD.
type Pair struct {
	BranchID uint64 `json:"branch_id"`
	Date     string `json:"date"`
}

// Valid reports whether both parts of the pair are set.
func (p Pair) Valid() bool { return p.BranchID != 0 && p.Date != "" }
