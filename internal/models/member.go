package models

// Member is a person taking part in a group's expenses.
// Membership itself is managed outside the ledger; this record is read-only here.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Name is the display name shown in audit rows and debt listings.
	Name string
}
