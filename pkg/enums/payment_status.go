package enums

import "fmt"

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusFailed        PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusRefundPending,
	PaymentStatusRefunded,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
