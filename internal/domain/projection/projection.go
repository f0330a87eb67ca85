// Package projection renders read-only views of orders for customers and staff.
package projection

import (
	"sort"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// TimelineEntry is a customer facing line of the order history.
type TimelineEntry struct {
	Status    model.OrderStatus
	Label     string
	Timestamp time.Time
	Note      string
}

// Badge is a colour coded marker for staff listings.
type Badge struct {
	Label string
	Color string
}

var statusLabels = map[model.OrderStatus]string{
	model.OrderStatusProcessing: "Order placed and being processed",
	model.OrderStatusConfirmed:  "Order confirmed",
	model.OrderStatusShipped:    "Shipped",
	model.OrderStatusDelivered:  "Delivered",
	model.OrderStatusCancelled:  "Cancelled",
}

var statusColors = map[model.OrderStatus]string{
	model.OrderStatusProcessing: "yellow",
	model.OrderStatusConfirmed:  "blue",
	model.OrderStatusShipped:    "indigo",
	model.OrderStatusDelivered:  "green",
	model.OrderStatusCancelled:  "red",
}

// Label returns human readable status text.
func Label(status model.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// Timeline returns history sorted by time. Entries with equal timestamps keep
// their recorded order.
func Timeline(order *model.Order) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(order.StatusHistory))
	for _, h := range order.StatusHistory {
		entries = append(entries, TimelineEntry{
			Status:    h.Status,
			Label:     Label(h.Status),
			Timestamp: h.Timestamp,
			Note:      h.Note,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// StatusBadge returns badge for status; unknown statuses are gray.
func StatusBadge(status model.OrderStatus) Badge {
	color, ok := statusColors[status]
	if !ok {
		color = "gray"
	}
	return Badge{Label: string(status), Color: color}
}

// PaymentBadge renders paid flag for staff listings.
func PaymentBadge(isPaid bool) Badge {
	if isPaid {
		return Badge{Label: "Paid", Color: "green"}
	}
	return Badge{Label: "Unpaid", Color: "red"}
}

// CanCancel reports whether the customer may still cancel.
func CanCancel(order *model.Order) bool {
	return order.Status == model.OrderStatusProcessing
}

// CanReview reports whether the user may review an item of the order.
func CanReview(order *model.Order, alreadyReviewed bool) bool {
	return order.Status == model.OrderStatusDelivered && !alreadyReviewed
}

// AvailableActions lists statuses staff may move the order to.
func AvailableActions(status model.OrderStatus) []model.OrderStatus {
	return model.NextStatuses(status)
}
