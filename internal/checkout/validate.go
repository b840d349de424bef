package checkout

import (
	"context"
	"fmt"

	"github.com/nostrapizza/storefront-backend/internal/cart"
	"github.com/nostrapizza/storefront-backend/internal/flavours"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
)

// Confirmer resolves a yes/no prompt raised mid-validation. An unanswered
// prompt must come back as a CONFIRMATION_REQUIRED error so the client can
// surface the question and retry.
type Confirmer interface {
	Confirm(ctx context.Context, item, prompt string) (bool, error)
}

// MapConfirmer answers prompts from the confirmations map submitted with the
// request, keyed by item name.
type MapConfirmer struct {
	Answers map[string]bool
}

func (c MapConfirmer) Confirm(ctx context.Context, item, prompt string) (bool, error) {
	answer, ok := c.Answers[item]
	if !ok {
		return false, pkgerrors.New(pkgerrors.CodeConfirmationRequired, prompt).
			WithDetails(map[string]string{"item": item, "prompt": prompt})
	}
	return answer, nil
}

type flavourSource interface {
	ListForMenu(ctx context.Context, menuID int64) ([]flavours.MenuFlavourRow, error)
}

type itemGroup struct {
	title       string
	maxQuantity int
	flavourIDs  map[int64]struct{}
}

// Validate walks the cart line by line, unit by unit, and stops at the first
// problem. Lines without flavour groups are skipped. The three checks per
// unit, in order:
//
//  1. no flavour picked at all: hard failure naming the item;
//  2. an exactly-one group with no pick in it: hard failure naming the group;
//  3. fewer picks than the groups allow in total: the shopper is asked to
//     confirm; a decline aborts the pass with ok=false and no error.
func Validate(ctx context.Context, state *cart.State, source flavourSource, confirmer Confirmer) (bool, error) {
	if state == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	for _, line := range state.Lines {
		groups, err := loadItemGroups(ctx, source, line.ID)
		if err != nil {
			return false, err
		}
		if len(groups) == 0 {
			continue
		}

		totalMax := 0
		for _, group := range groups {
			totalMax += group.maxQuantity
		}

		for unit := 0; unit < line.Quantity; unit++ {
			picks := state.UnitFlavourIDs(line.ID, unit)
			if len(picks) == 0 {
				return false, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("Debe seleccionar al menos un gusto para %s.", line.Name))
			}

			for _, group := range groups {
				if group.maxQuantity != 1 {
					continue
				}
				if !intersects(picks, group.flavourIDs) {
					return false, pkgerrors.New(pkgerrors.CodeValidation,
						fmt.Sprintf("Debe seleccionar una opción de %s en %s.", group.title, line.Name))
				}
			}

			if distinctCount(picks) < totalMax {
				prompt := fmt.Sprintf("¿Está seguro de que desea continuar con %s sin seleccionar todas las opciones?", line.Name)
				confirmed, err := confirmer.Confirm(ctx, line.Name, prompt)
				if err != nil {
					return false, err
				}
				if !confirmed {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

// loadItemGroups folds the flat flavour rows into per-group id sets,
// preserving first-seen group order.
func loadItemGroups(ctx context.Context, source flavourSource, menuID int64) ([]itemGroup, error) {
	rows, err := source.ListForMenu(ctx, menuID)
	if err != nil {
		return nil, err
	}

	var groups []itemGroup
	index := map[string]int{}
	for _, row := range rows {
		pos, ok := index[row.GrpTitle]
		if !ok {
			pos = len(groups)
			index[row.GrpTitle] = pos
			groups = append(groups, itemGroup{
				title:       row.GrpTitle,
				maxQuantity: row.Quantity,
				flavourIDs:  map[int64]struct{}{},
			})
		}
		groups[pos].flavourIDs[row.FlvID] = struct{}{}
	}
	return groups, nil
}

func intersects(picks []int64, ids map[int64]struct{}) bool {
	for _, id := range picks {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

func distinctCount(picks []int64) int {
	seen := map[int64]struct{}{}
	for _, id := range picks {
		seen[id] = struct{}{}
	}
	return len(seen)
}
