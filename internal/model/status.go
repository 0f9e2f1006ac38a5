package model

import (
	"fmt"
	"strings"
)

// OrderStatus is the persisted lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// statusAliases maps display-only labels onto persisted statuses.
var statusAliases = map[string]OrderStatus{
	"CONFIRMED": StatusPending,
}

// transitions lists the legal target states for each non-terminal state.
// Terminal states have no entry.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus converts a client supplied label to an OrderStatus.
// Matching is case-insensitive and "confirmed" is read as PENDING.
func ParseOrderStatus(s string) (OrderStatus, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	if alias, ok := statusAliases[label]; ok {
		return alias, nil
	}

	status := OrderStatus(label)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Valid reports whether s is one of the persisted statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// String returns the persisted label.
func (s OrderStatus) String() string {
	return string(s)
}

// Description is the human readable text recorded on the tracking event
// written when an order enters this status.
func (s OrderStatus) Description() string {
	switch s {
	case StatusPending:
		return "Order placed and awaiting confirmation"
	case StatusProcessing:
		return "Order is being prepared by the vendor"
	case StatusShipped:
		return "Order has been shipped"
	case StatusDelivered:
		return "Order has been delivered"
	case StatusCancelled:
		return "Order has been cancelled"
	}
	return "Order status updated"
}

// CheckTransition validates moving an order from one status to another.
// A same-state request on a non-terminal order is a no-op and reports
// noop=true. Terminal orders reject every request.
func CheckTransition(from, to OrderStatus) (noop bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from.IsTerminal() {
		return false, fmt.Errorf("%w: order is %s", ErrIllegalTransition, from)
	}
	if from == to {
		return true, nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s to %s", ErrIllegalTransition, from, to)
}
