package cart

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

// Line is a single menu item entry in the cart. UnitFlavours holds one slot
// per purchased unit; slots are filled lazily, so the slice may be shorter
// than Quantity and individual entries may be nil.
type Line struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	UnitFlavours [][]int64       `json:"unit_flavours"`
}

// State is the full cart snapshot stored per user.
type State struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// NewState returns an empty cart.
func NewState() *State {
	return &State{Lines: []Line{}, Total: decimal.Zero}
}

func (s *State) findLine(itemID int64) *Line {
	for i := range s.Lines {
		if s.Lines[i].ID == itemID {
			return &s.Lines[i]
		}
	}
	return nil
}

// AddItem merges qty units of the item into the cart. An existing line keeps
// its flavour slots untouched; the total grows by price times qty either way.
func (s *State) AddItem(itemID int64, name string, price decimal.Decimal, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if line := s.findLine(itemID); line != nil {
		line.Quantity += qty
	} else {
		s.Lines = append(s.Lines, Line{
			ID:           itemID,
			Name:         name,
			Price:        price,
			Quantity:     qty,
			UnitFlavours: [][]int64{},
		})
	}

	s.Total = s.Total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	return nil
}

// SetQuantity overwrites the quantity of an existing line and adjusts the
// total by the delta. The line must already be in the cart.
func (s *State) SetQuantity(itemID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	line := s.findLine(itemID)
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}

	delta := qty - line.Quantity
	line.Quantity = qty
	s.Total = s.Total.Add(line.Price.Mul(decimal.NewFromInt(int64(delta))))
	return nil
}

// UpdateUnitFlavours stores the flavour picks for one unit of a line. The
// slots slice grows sparsely: writing unit 3 on a fresh line leaves units
// 0-2 as nil entries. Slots beyond the current quantity are kept as-is, so
// lowering the quantity later never prunes them.
func (s *State) UpdateUnitFlavours(itemID int64, unitIndex int, flavourIDs []int64) error {
	if unitIndex < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit index must be non-negative")
	}

	line := s.findLine(itemID)
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}

	for len(line.UnitFlavours) <= unitIndex {
		line.UnitFlavours = append(line.UnitFlavours, nil)
	}
	picks := make([]int64, len(flavourIDs))
	copy(picks, flavourIDs)
	line.UnitFlavours[unitIndex] = picks
	return nil
}

// RemoveItem drops a line and its contribution to the total. Removing an
// absent item is a no-op.
func (s *State) RemoveItem(itemID int64) {
	for i := range s.Lines {
		if s.Lines[i].ID != itemID {
			continue
		}
		line := s.Lines[i]
		s.Total = s.Total.Sub(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
		return
	}
}

// Clear empties the cart.
func (s *State) Clear() {
	s.Lines = []Line{}
	s.Total = decimal.Zero
}

// ReplaceAll swaps the full line set and recomputes the total from scratch.
// Lines are keyed by item id, so two submitted lines may not share one.
func (s *State) ReplaceAll(lines []Line) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate item in cart lines")
		}
		seen[line.ID] = struct{}{}
	}

	s.Lines = make([]Line, len(lines))
	copy(s.Lines, lines)

	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	s.Total = total
	return nil
}

// Quantity returns the cart quantity for the item, zero when absent.
func (s *State) Quantity(itemID int64) int {
	if line := s.findLine(itemID); line != nil {
		return line.Quantity
	}
	return 0
}

// UnitFlavourIDs returns the stored picks for one unit of a line, or an
// empty slice when the slot was never written.
func (s *State) UnitFlavourIDs(itemID int64, unitIndex int) []int64 {
	line := s.findLine(itemID)
	if line == nil || unitIndex < 0 || unitIndex >= len(line.UnitFlavours) {
		return []int64{}
	}
	if line.UnitFlavours[unitIndex] == nil {
		return []int64{}
	}
	return line.UnitFlavours[unitIndex]
}
