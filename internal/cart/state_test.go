package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestAddItemAccumulatesQuantityAndTotal(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 1); err != nil {
		t.Fatalf("add item again: %v", err)
	}

	if got := state.Quantity(1); got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}
	if !state.Total.Equal(price("22500.00")) {
		t.Fatalf("expected total 22500.00, got %s", state.Total)
	}
	if len(state.Lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(state.Lines))
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	state := NewState()
	err := state.AddItem(1, "Muzzarella", price("7500.00"), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetQuantityAdjustsTotalByDelta(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Napolitana", price("8200.00"), 3); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := state.SetQuantity(1, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if !state.Total.Equal(price("8200.00")) {
		t.Fatalf("expected total 8200.00, got %s", state.Total)
	}

	if err := state.SetQuantity(1, 5); err != nil {
		t.Fatalf("set quantity up: %v", err)
	}
	if !state.Total.Equal(price("41000.00")) {
		t.Fatalf("expected total 41000.00, got %s", state.Total)
	}
}

func TestSetQuantityMissingLine(t *testing.T) {
	t.Parallel()

	state := NewState()
	err := state.SetQuantity(99, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateUnitFlavoursGrowsSparsely(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(7, "Docena de empanadas", price("9600.00"), 4); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := state.UpdateUnitFlavours(7, 2, []int64{11, 12}); err != nil {
		t.Fatalf("update unit flavours: %v", err)
	}

	line := state.findLine(7)
	if len(line.UnitFlavours) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(line.UnitFlavours))
	}
	if line.UnitFlavours[0] != nil || line.UnitFlavours[1] != nil {
		t.Fatal("expected earlier slots to stay nil")
	}
	if got := state.UnitFlavourIDs(7, 2); len(got) != 2 || got[0] != 11 || got[1] != 12 {
		t.Fatalf("unexpected picks %v", got)
	}
	if got := state.UnitFlavourIDs(7, 0); len(got) != 0 {
		t.Fatalf("expected empty picks for unwritten slot, got %v", got)
	}
}

func TestUpdateUnitFlavoursMissingLine(t *testing.T) {
	t.Parallel()

	state := NewState()
	err := state.UpdateUnitFlavours(1, 0, []int64{5})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoweringQuantityKeepsTrailingFlavourSlots(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(7, "Docena de empanadas", price("9600.00"), 3); err != nil {
		t.Fatalf("add item: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := state.UpdateUnitFlavours(7, i, []int64{int64(10 + i)}); err != nil {
			t.Fatalf("update unit %d: %v", i, err)
		}
	}

	if err := state.SetQuantity(7, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	line := state.findLine(7)
	if len(line.UnitFlavours) != 3 {
		t.Fatalf("expected trailing slots preserved, got %d", len(line.UnitFlavours))
	}
	if got := state.UnitFlavourIDs(7, 2); len(got) != 1 || got[0] != 12 {
		t.Fatalf("expected slot 2 intact, got %v", got)
	}
}

func TestRemoveItemIsNoOpWhenAbsent(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	state.RemoveItem(42)
	if len(state.Lines) != 1 || !state.Total.Equal(price("7500.00")) {
		t.Fatalf("remove of absent item mutated state: %+v", state)
	}

	state.RemoveItem(1)
	if len(state.Lines) != 0 || !state.Total.Equal(decimal.Zero) {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestClearResetsEverything(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	state.Clear()
	if len(state.Lines) != 0 || !state.Total.Equal(decimal.Zero) {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestReplaceAllRecomputesTotal(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := state.ReplaceAll([]Line{
		{ID: 2, Name: "Napolitana", Price: price("8200.00"), Quantity: 1},
		{ID: 7, Name: "Docena de empanadas", Price: price("9600.00"), Quantity: 2},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if len(state.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(state.Lines))
	}
	if !state.Total.Equal(price("27400.00")) {
		t.Fatalf("expected total 27400.00, got %s", state.Total)
	}
}

func TestReplaceAllRejectsDuplicateLineIDs(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	err := state.ReplaceAll([]Line{
		{ID: 2, Name: "Napolitana", Price: price("8200.00"), Quantity: 1},
		{ID: 2, Name: "Napolitana", Price: price("8200.00"), Quantity: 2},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The rejected replacement must leave the cart untouched.
	if len(state.Lines) != 1 || state.Lines[0].ID != 1 {
		t.Fatalf("cart mutated by rejected replace: %+v", state.Lines)
	}
	if !state.Total.Equal(price("7500.00")) {
		t.Fatalf("total mutated by rejected replace: %s", state.Total)
	}
}

func TestTotalMatchesLineSumAfterMixedOps(t *testing.T) {
	t.Parallel()

	state := NewState()
	if err := state.AddItem(1, "Muzzarella", price("7500.00"), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := state.AddItem(2, "Napolitana", price("8200.00"), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := state.SetQuantity(1, 4); err != nil {
		t.Fatalf("set: %v", err)
	}
	state.RemoveItem(2)
	if err := state.AddItem(7, "Docena de empanadas", price("9600.00"), 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	sum := decimal.Zero
	for _, line := range state.Lines {
		sum = sum.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if !state.Total.Equal(sum) {
		t.Fatalf("total %s does not match line sum %s", state.Total, sum)
	}
}
