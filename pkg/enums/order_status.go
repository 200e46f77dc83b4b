package enums

import "fmt"

// OrderStatus tracks the document lifecycle of draft and sales orders.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "Draft"
	OrderStatusSubmitted OrderStatus = "Submitted"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusSubmitted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// ItemsEditable reports whether line items may still change.
func (o OrderStatus) ItemsEditable() bool {
	return o == OrderStatusDraft
}
