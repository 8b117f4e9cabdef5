package domain_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для запроса на заказ с одной корректной позицией.
func makeOrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Items: []domain.OrderItemRequest{
			{ProductID: "p1", Quantity: 2},
		},
	}
}

func TestOrderRequestValidate_Ok(t *testing.T) {
	req := makeOrderRequest()
	if errs := req.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderRequestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(r *domain.OrderRequest)
		want error
	}{
		{
			name: "no items",
			mut: func(r *domain.OrderRequest) {
				r.Items = nil
			},
			want: domain.ErrOrderItemsRequired,
		},
		{
			name: "no product id",
			mut: func(r *domain.OrderRequest) {
				r.Items[0].ProductID = ""
			},
			want: domain.ErrOrderItemProductRequired,
		},
		{
			name: "qty invalid",
			mut: func(r *domain.OrderRequest) {
				r.Items[0].Quantity = 0
			},
			want: domain.ErrOrderItemQtyInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := makeOrderRequest()
			tc.mut(&req)

			errs := req.Validate()
			if len(errs) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus(" shipped ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.OrderStatusShipped {
		t.Fatalf("unexpected status: %s", status)
	}

	if _, err := domain.ParseOrderStatus("teleported"); !errors.Is(err, domain.ErrOrderStatusUnknown) {
		t.Fatalf("expected ErrOrderStatusUnknown, got %v", err)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusShipped} {
		if status.Terminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestOrderStatusCancellable(t *testing.T) {
	if !domain.OrderStatusPending.Cancellable() || !domain.OrderStatusConfirmed.Cancellable() {
		t.Fatal("expected PENDING and CONFIRMED to be cancellable")
	}
	if domain.OrderStatusShipped.Cancellable() {
		t.Fatal("expected SHIPPED to be non-cancellable")
	}
}
