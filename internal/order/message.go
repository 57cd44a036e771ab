package order

import "fmt"

// Fallbacks used when a field is missing.
const (
	UnknownName    = "Unknown"
	UnknownTotal   = "0"
	UnknownOrderID = "N/A"
)

// Message formats the chat notification line for an order.
func (p Payload) Message() string {
	return fmt.Sprintf("📦 New Order: %s • $%s • ID: %s",
		display(p.Name, UnknownName),
		display(p.Total, UnknownTotal),
		display(p.OrderID, UnknownOrderID),
	)
}
