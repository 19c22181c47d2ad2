package sales

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
)

func (f *fixture) sellOne(t *testing.T, quantity int, discount decimal.Decimal) *Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductID: f.products[0].ID, Quantity: quantity, Discount: discount},
		},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	return sale
}

func TestCreateReturn(t *testing.T) {
	f := newFixture(t, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  2,
		Reason:    "damaged packaging",
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	if ret.Status != ReturnStatusPending {
		t.Errorf("expected pending status, got %s", ret.Status)
	}
	// 4 x 100 = 400 line total, 2 units back = 200
	if !ret.RefundAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected refund 200, got %s", ret.RefundAmount)
	}

	day := time.Now().UTC().Format("20060102")
	want := fmt.Sprintf("RET-%s-0001", day)
	if ret.ReturnNumber != want {
		t.Errorf("expected return number %s, got %s", want, ret.ReturnNumber)
	}

	// Creating a return must not move stock
	if got := f.stockQuantity(t, 0); got != 16 {
		t.Errorf("expected stock 16, got %d", got)
	}
}

func TestCreateReturnRefundUsesRecordedDiscount(t *testing.T) {
	f := newFixture(t, 20)
	// 4 x 100 - 40 discount = 360 line total, so 90 per unit
	sale := f.sellOne(t, 4, decimal.NewFromInt(40))

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  3,
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}
	if !ret.RefundAmount.Equal(decimal.NewFromInt(270)) {
		t.Errorf("expected refund 270, got %s", ret.RefundAmount)
	}

	// A later price change must not affect the refund
	f.setPrice(t, 0, decimal.NewFromInt(1000))
	ret2, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("second return failed: %v", err)
	}
	if !ret2.RefundAmount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected refund 90 from recorded line, got %s", ret2.RefundAmount)
	}
}

func TestCreateReturnValidation(t *testing.T) {
	f := newFixture(t, 20, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	_, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    9999,
		ProductID: f.products[0].ID,
		Quantity:  1,
	})
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown sale, got %v", err)
	}

	// Product exists but was not on this sale
	_, err = f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[1].ID,
		Quantity:  1,
	})
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for product not in sale, got %v", err)
	}

	// More than was sold
	_, err = f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  5,
	})
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for excess quantity, got %v", err)
	}
}

func TestProcessReturnApprove(t *testing.T) {
	f := newFixture(t, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	processed, err := f.sales.ProcessReturn(ret.ID, ReturnStatusApproved, 7)
	if err != nil {
		t.Fatalf("process return failed: %v", err)
	}
	if processed.Status != ReturnStatusApproved {
		t.Errorf("expected approved, got %s", processed.Status)
	}
	if processed.ProcessedBy == nil || *processed.ProcessedBy != 7 {
		t.Error("expected processed_by to be set")
	}
	if processed.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}

	// 20 - 4 sold + 2 returned
	if got := f.stockQuantity(t, 0); got != 18 {
		t.Errorf("expected stock 18 after approval, got %d", got)
	}
}

func TestProcessReturnReject(t *testing.T) {
	f := newFixture(t, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	processed, err := f.sales.ProcessReturn(ret.ID, ReturnStatusRejected, 7)
	if err != nil {
		t.Fatalf("process return failed: %v", err)
	}
	if processed.Status != ReturnStatusRejected {
		t.Errorf("expected rejected, got %s", processed.Status)
	}

	// Rejection never moves stock
	if got := f.stockQuantity(t, 0); got != 16 {
		t.Errorf("expected stock 16 after rejection, got %d", got)
	}
}

func TestProcessReturnExactlyOnce(t *testing.T) {
	f := newFixture(t, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	if _, err := f.sales.ProcessReturn(ret.ID, ReturnStatusApproved, 7); err != nil {
		t.Fatalf("first process failed: %v", err)
	}

	// Second processing attempt fails and must not credit stock again
	_, err = f.sales.ProcessReturn(ret.ID, ReturnStatusApproved, 7)
	if !apperrors.IsInvalidOperation(err) {
		t.Fatalf("expected InvalidOperation on double process, got %v", err)
	}
	if got := f.stockQuantity(t, 0); got != 18 {
		t.Errorf("expected stock 18 after single credit, got %d", got)
	}
}

func TestProcessReturnValidation(t *testing.T) {
	f := newFixture(t, 20)
	sale := f.sellOne(t, 4, decimal.Zero)

	ret, err := f.sales.CreateReturn(&CreateReturnRequest{
		SaleID:    sale.ID,
		ProductID: f.products[0].ID,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("create return failed: %v", err)
	}

	// Only approved or rejected are valid targets
	_, err = f.sales.ProcessReturn(ret.ID, ReturnStatusCompleted, 7)
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for bad target status, got %v", err)
	}

	_, err = f.sales.ProcessReturn(9999, ReturnStatusApproved, 7)
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown return, got %v", err)
	}
}

func TestGetReturns(t *testing.T) {
	f := newFixture(t, 50)
	sale := f.sellOne(t, 10, decimal.Zero)

	for i := 0; i < 3; i++ {
		if _, err := f.sales.CreateReturn(&CreateReturnRequest{
			SaleID:    sale.ID,
			ProductID: f.products[0].ID,
			Quantity:  1,
		}); err != nil {
			t.Fatalf("create return %d failed: %v", i, err)
		}
	}

	response, err := f.sales.GetReturns(&ReturnListRequest{SaleID: &sale.ID})
	if err != nil {
		t.Fatalf("get returns failed: %v", err)
	}
	if response.Total != 3 || len(response.Returns) != 3 {
		t.Errorf("expected 3 returns, got total %d len %d", response.Total, len(response.Returns))
	}

	pending := ReturnStatusPending
	response, err = f.sales.GetReturns(&ReturnListRequest{Status: pending})
	if err != nil {
		t.Fatalf("get returns by status failed: %v", err)
	}
	if response.Total != 3 {
		t.Errorf("expected 3 pending returns, got %d", response.Total)
	}
}
