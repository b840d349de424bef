package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/internal/flavours"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

type stubSource struct {
	rows map[int64][]flavours.MenuFlavourRow
}

func (s *stubSource) ListForMenu(ctx context.Context, menuID int64) ([]flavours.MenuFlavourRow, error) {
	return s.rows[menuID], nil
}

// Menu fixture: item 1 "Muzzarella" and item 2 "Napolitana" share the
// single-choice "Tamaño" group; Napolitana adds a three-pick "Extras" group.
// Item 3 "Gaseosa" carries no flavour groups at all.
func newSource() *stubSource {
	size := []flavours.MenuFlavourRow{
		{Quantity: 1, GrpTitle: "Tamaño", FlvID: 6, Name: "Chica", Available: true},
		{Quantity: 1, GrpTitle: "Tamaño", FlvID: 7, Name: "Grande", Available: true},
	}
	extras := []flavours.MenuFlavourRow{
		{Quantity: 3, GrpTitle: "Extras", FlvID: 10, Name: "Aceitunas", Available: true},
		{Quantity: 3, GrpTitle: "Extras", FlvID: 11, Name: "Huevo", Available: true},
		{Quantity: 3, GrpTitle: "Extras", FlvID: 12, Name: "Morrón", Available: true},
	}
	return &stubSource{rows: map[int64][]flavours.MenuFlavourRow{
		1: size,
		2: append(append([]flavours.MenuFlavourRow{}, size...), extras...),
	}}
}

type scriptedConfirmer struct {
	answers map[string]bool
	asked   []string
}

func (c *scriptedConfirmer) Confirm(ctx context.Context, item, prompt string) (bool, error) {
	c.asked = append(c.asked, prompt)
	return MapConfirmer{Answers: c.answers}.Confirm(ctx, item, prompt)
}

func cartWith(t *testing.T, id int64, name, unitPrice string, qty int) *cart.State {
	t.Helper()
	state := cart.NewState()
	if err := state.AddItem(id, name, decimal.RequireFromString(unitPrice), qty); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return state
}

func setPicks(t *testing.T, state *cart.State, id int64, unit int, picks []int64) {
	t.Helper()
	if err := state.UpdateUnitFlavours(id, unit, picks); err != nil {
		t.Fatalf("seed picks: %v", err)
	}
}

func TestValidateBlocksUnitWithoutAnySelection(t *testing.T) {
	t.Parallel()

	state := cartWith(t, 1, "Muzzarella", "7500.00", 1)

	_, err := runValidate(t, state, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "Debe seleccionar al menos un gusto para Muzzarella." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestValidateBlocksMissingExclusiveGroupPick(t *testing.T) {
	t.Parallel()

	state := cartWith(t, 2, "Napolitana", "8200.00", 1)
	setPicks(t, state, 2, 0, []int64{10, 11, 12})

	_, err := runValidate(t, state, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "Debe seleccionar una opción de Tamaño en Napolitana." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestValidateDeclinedConfirmationAbortsWholePass(t *testing.T) {
	t.Parallel()

	// Unit 0 is incomplete (2 of 4 possible picks) and unit 1 is complete;
	// declining the unit 0 prompt must abort before unit 1 is reached.
	state := cartWith(t, 2, "Napolitana", "8200.00", 2)
	setPicks(t, state, 2, 0, []int64{6, 10})
	setPicks(t, state, 2, 1, []int64{7, 10, 11, 12})

	ok, err := runValidate(t, state, map[string]bool{"Napolitana": false})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatal("expected declined confirmation to abort")
	}
}

func TestValidateConfirmedIncompleteUnitPasses(t *testing.T) {
	t.Parallel()

	state := cartWith(t, 2, "Napolitana", "8200.00", 2)
	setPicks(t, state, 2, 0, []int64{6, 10})
	setPicks(t, state, 2, 1, []int64{7, 10, 11, 12})

	ok, err := runValidate(t, state, map[string]bool{"Napolitana": true})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("expected confirmed pass")
	}
}

func TestValidateUnansweredPromptSurfacesConfirmationRequired(t *testing.T) {
	t.Parallel()

	state := cartWith(t, 2, "Napolitana", "8200.00", 1)
	setPicks(t, state, 2, 0, []int64{6})

	_, err := runValidate(t, state, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConfirmationRequired {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if !strings.Contains(typed.Error(), "¿Está seguro de que desea continuar con Napolitana") {
		t.Fatalf("unexpected prompt %q", typed.Error())
	}
}

func TestValidateSkipsLinesWithoutGroups(t *testing.T) {
	t.Parallel()

	state := cartWith(t, 3, "Gaseosa", "2000.00", 2)

	ok, err := runValidate(t, state, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("expected pass for a line with no flavour groups")
	}
}

func TestValidateIgnoresOrphanedTrailingSlots(t *testing.T) {
	t.Parallel()

	// Write three units, then lower the quantity to one. Only unit 0 should
	// be checked; the stale slots beyond it must not matter.
	state := cartWith(t, 1, "Muzzarella", "7500.00", 3)
	setPicks(t, state, 1, 0, []int64{6})
	setPicks(t, state, 1, 1, []int64{})
	setPicks(t, state, 1, 2, []int64{})
	if err := state.SetQuantity(1, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	ok, err := runValidate(t, state, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("expected pass once only unit 0 is in scope")
	}
}

func TestValidateStopsAtFirstFailingLine(t *testing.T) {
	t.Parallel()

	// The first line fails hard; the second would need a confirmation the
	// confirmer cannot answer, so reaching it would error differently.
	state := cartWith(t, 1, "Muzzarella", "7500.00", 1)
	if err := state.AddItem(2, "Napolitana", decimal.RequireFromString("8200.00"), 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	setPicks(t, state, 2, 0, []int64{6})

	confirmer := &scriptedConfirmer{}
	_, err := Validate(context.Background(), state, newSource(), confirmer)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(confirmer.asked) != 0 {
		t.Fatalf("expected no prompts, got %v", confirmer.asked)
	}
}

func runValidate(t *testing.T, state *cart.State, answers map[string]bool) (bool, error) {
	t.Helper()
	return Validate(context.Background(), state, newSource(), &scriptedConfirmer{answers: answers})
}
