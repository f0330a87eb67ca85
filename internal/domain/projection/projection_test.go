package projection

import (
	"testing"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

func TestTimelineIsChronological(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	order := &model.Order{
		Status: model.OrderStatusShipped,
		StatusHistory: []model.StatusEntry{
			{Status: model.OrderStatusProcessing, Timestamp: base},
			{Status: model.OrderStatusShipped, Timestamp: base.Add(2 * time.Hour), Note: "courier"},
			{Status: model.OrderStatusConfirmed, Timestamp: base.Add(time.Hour)},
		},
	}

	timeline := Timeline(order)
	if len(timeline) != 3 {
		t.Fatalf("expected three entries, got %d", len(timeline))
	}
	want := []model.OrderStatus{model.OrderStatusProcessing, model.OrderStatusConfirmed, model.OrderStatusShipped}
	for i, status := range want {
		if timeline[i].Status != status {
			t.Fatalf("entry %d: expected %s, got %s", i, status, timeline[i].Status)
		}
	}
	if timeline[2].Label != "Shipped" || timeline[2].Note != "courier" {
		t.Fatalf("unexpected last entry: %+v", timeline[2])
	}
	if order.StatusHistory[1].Status != model.OrderStatusShipped {
		t.Fatal("expected projection not to reorder the aggregate")
	}
}

func TestStatusBadge(t *testing.T) {
	cases := map[model.OrderStatus]string{
		model.OrderStatusProcessing: "yellow",
		model.OrderStatusConfirmed:  "blue",
		model.OrderStatusShipped:    "indigo",
		model.OrderStatusDelivered:  "green",
		model.OrderStatusCancelled:  "red",
		"Unknown":                   "gray",
	}
	for status, color := range cases {
		if got := StatusBadge(status); got.Color != color || got.Label != string(status) {
			t.Errorf("%s: unexpected badge %+v", status, got)
		}
	}
	if PaymentBadge(true).Label != "Paid" || PaymentBadge(false).Color != "red" {
		t.Fatal("unexpected payment badges")
	}
}

func TestEligibilityFlags(t *testing.T) {
	for _, status := range model.OrderStatuses {
		order := &model.Order{Status: status}
		if got := CanCancel(order); got != (status == model.OrderStatusProcessing) {
			t.Errorf("%s: unexpected cancel flag %v", status, got)
		}
		if got := CanReview(order, false); got != (status == model.OrderStatusDelivered) {
			t.Errorf("%s: unexpected review flag %v", status, got)
		}
		if CanReview(order, true) {
			t.Errorf("%s: reviewed item must not be reviewable", status)
		}
	}
}

func TestAvailableActionsFollowTransitionTable(t *testing.T) {
	for _, status := range model.OrderStatuses {
		for _, next := range AvailableActions(status) {
			if !model.CanTransition(status, next) {
				t.Errorf("action %s offered from %s but not allowed", next, status)
			}
		}
	}
	if len(AvailableActions(model.OrderStatusDelivered)) != 0 {
		t.Fatal("expected no actions for terminal status")
	}
}
