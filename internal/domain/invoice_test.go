package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestInvoiceItem_LineTotal(t *testing.T) {
	item := InvoiceItem{
		Name:      "Consulting",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("19.99"),
	}

	if got := item.LineTotal(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("expected 59.97, got %s", got)
	}
}

func TestInvoice_GrandTotal_ExactDecimal(t *testing.T) {
	// 0.1 + 0.2 — классический провал float64; decimal обязан дать ровно 0.3
	inv := Invoice{
		ID: 1,
		Items: []InvoiceItem{
			{Name: "A", Quantity: 1, UnitPrice: decimal.RequireFromString("0.1")},
			{Name: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("0.2")},
		},
	}

	if got := inv.GrandTotal(); !got.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("expected exactly 0.3, got %s", got)
	}
}

func TestInvoice_GrandTotal_Empty(t *testing.T) {
	inv := Invoice{ID: 1}

	if !inv.GrandTotal().IsZero() {
		t.Error("grand total of an empty invoice should be zero")
	}
	if inv.HasItems() {
		t.Error("empty invoice should not have items")
	}
}

func TestInvoice_ArtifactKey(t *testing.T) {
	inv := Invoice{ID: 17}

	if got := inv.ArtifactKey(); got != "report_17.pdf" {
		t.Errorf("expected report_17.pdf, got %q", got)
	}
}

func TestInvoiceItem_Validate(t *testing.T) {
	cases := []struct {
		name    string
		item    InvoiceItem
		wantErr bool
	}{
		{"valid", InvoiceItem{Name: "X", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}, false},
		{"free item", InvoiceItem{Name: "X", Quantity: 1, UnitPrice: decimal.Zero}, false},
		{"empty name", InvoiceItem{Quantity: 1, UnitPrice: decimal.NewFromInt(10)}, true},
		{"zero quantity", InvoiceItem{Name: "X", Quantity: 0, UnitPrice: decimal.NewFromInt(10)}, true},
		{"negative quantity", InvoiceItem{Name: "X", Quantity: -1, UnitPrice: decimal.NewFromInt(10)}, true},
		{"negative price", InvoiceItem{Name: "X", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
