package models

// ChangeField names an expense attribute tracked by the audit log.
type ChangeField string

const (
	FieldDescription ChangeField = "description"
	FieldAmount      ChangeField = "amount"
	FieldPaidBy      ChangeField = "paid_by"
	FieldDate        ChangeField = "date"
	FieldCategory    ChangeField = "category"
	FieldSplits      ChangeField = "splits"

	// FieldPayment is not an expense attribute. It labels payment events in
	// an expense's history.
	FieldPayment ChangeField = "payment"
)

// ChangeKind is the stored discriminator of an audit row.
type ChangeKind string

const (
	KindField   ChangeKind = "field"
	KindPayment ChangeKind = "payment"
)

// Change is the payload of an audit row: a FieldChange or a PaymentEvent.
type Change interface {
	Kind() ChangeKind
	isChange()
}

// FieldChange records an edit of one expense attribute.
type FieldChange struct {
	Field    ChangeField
	OldValue string
	NewValue string
}

func (FieldChange) Kind() ChangeKind { return KindField }
func (FieldChange) isChange()        {}

// PaymentEvent records a settlement attributed to the expense.
type PaymentEvent struct {
	SettlementID string
	Description  string // e.g. "Bob paid 20.00 to Alice"
}

func (PaymentEvent) Kind() ChangeKind { return KindPayment }
func (PaymentEvent) isChange()        {}

// ExpenseChange is one append-only row in an expense's history.
type ExpenseChange struct {
	ID        int64
	ExpenseID string

	// ChangedBy is the member ID of the editor, or of the payer for payment events.
	ChangedBy string

	// ChangedByName is filled in by the store when reading history.
	ChangedByName string

	// ChangedAt is the Unix timestamp of the change.
	ChangedAt int64

	Change Change
}

// FieldName returns the audited field, or "payment" for payment events.
func (c *ExpenseChange) FieldName() ChangeField {
	switch ch := c.Change.(type) {
	case FieldChange:
		return ch.Field
	case PaymentEvent:
		return FieldPayment
	default:
		return ""
	}
}
