package model

// FieldStatus is a field-level override that applies to every hour of the
// day, independent of hourly bookings.
type FieldStatus string

const (
	FieldAvailable   FieldStatus = "available"
	FieldBooked      FieldStatus = "booked"
	FieldMaintenance FieldStatus = "maintenance"
	FieldClosed      FieldStatus = "closed"
)

// Branch is a sports venue that owns one or more fields.
//
// Fields:
//
//	ID      – primary key identifier.
//	Name    – display name of the branch.
//	OwnerID – user ID of the branch owner.
//	Address – free-form address line (nullable).
type Branch struct {
	ID      uint64  `json:"id"`                // branches.id
	Name    string  `json:"name"`              // branches.name
	OwnerID uint64  `json:"owner_id"`          // branches.owner_id
	Address *string `json:"address,omitempty"` // branches.address (nullable)
}

// Field is a bookable court or pitch inside a branch.  The availability
// engine only ever reads fields; they are managed by the admin screens of
// the booking backend.
//
// Fields:
//
//	ID         – primary key identifier.
//	BranchID   – owning branch.
//	Name       – display name (e.g. "Court A").
//	Status     – field-level status override.
//	PriceDay   – hourly price before the night tariff starts.
//	PriceNight – hourly price once the night tariff applies.
type Field struct {
	ID         uint64      `json:"id"`          // fields.id
	BranchID   uint64      `json:"branch_id"`   // fields.branch_id
	Name       string      `json:"name"`        // fields.name
	Status     FieldStatus `json:"status"`      // fields.status
	PriceDay   uint32      `json:"price_day"`   // fields.price_day
	PriceNight uint32      `json:"price_night"` // fields.price_night
}

// Bookable reports whether the field accepts new bookings at all.
func (f Field) Bookable() bool { return f.Status == FieldAvailable }
