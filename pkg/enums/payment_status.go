package enums

// PaymentStatus tracks how a licence is paid for.
type PaymentStatus string

const (
	PaymentStatusPending          PaymentStatus = "pending"
	PaymentStatusAwaitingTransfer PaymentStatus = "awaiting_transfer"
	PaymentStatusPaid             PaymentStatus = "paid"
	PaymentStatusFailed           PaymentStatus = "failed"
	PaymentStatusRefunded         PaymentStatus = "refunded"
	// PaymentStatusIncluded marks a licence consumed from the club's pack quota.
	PaymentStatusIncluded PaymentStatus = "included"
)

var paymentStatuses = newSet("payment status",
	PaymentStatusPending,
	PaymentStatusAwaitingTransfer,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusIncluded,
)

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return paymentStatuses.has(p) }

// Settled reports whether nothing more is owed for the licence.
func (p PaymentStatus) Settled() bool {
	return p == PaymentStatusPaid || p == PaymentStatusIncluded
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return paymentStatuses.parse(value)
}

// PaymentStatuses lists every canonical payment status.
func PaymentStatuses() []PaymentStatus { return paymentStatuses.list() }
