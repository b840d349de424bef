package controllers

import (
	"net/http"

	"github.com/nostrapizza/storefront-backend/api/middleware"
	"github.com/nostrapizza/storefront-backend/api/responses"
	"github.com/nostrapizza/storefront-backend/api/validators"
	cartsvc "github.com/nostrapizza/storefront-backend/internal/cart"
	flavourssvc "github.com/nostrapizza/storefront-backend/internal/flavours"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
)

type cartAddRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type cartReplaceRequest struct {
	Lines []cartReplaceLine `json:"lines" validate:"dive"`
}

type cartReplaceLine struct {
	ItemID       int64     `json:"item_id" validate:"required,gt=0"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
	UnitFlavours [][]int64 `json:"unit_flavours"`
}

type unitFlavoursRequest struct {
	FlavourIDs []int64 `json:"flavour_ids"`
}

type flavourToggleRequest struct {
	FlavourID int64 `json:"flavour_id" validate:"required,gt=0"`
}

type unitSelectionResponse struct {
	Groups      []flavourssvc.Group `json:"groups"`
	Summary     string              `json:"summary"`
	SelectedIDs []int64             `json:"selected_ids"`
}

func cartUserID(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// CartFetch returns the caller's cart snapshot.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartAddItem adds units of a menu item to the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.AddItem(r.Context(), userID, payload.ItemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartSetQuantity sets the quantity of a cart line. Zero removes the line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var state *cartsvc.State
		if payload.Quantity == 0 {
			state, err = svc.RemoveItem(r.Context(), userID, itemID)
		} else {
			state, err = svc.SetQuantity(r.Context(), userID, itemID, payload.Quantity)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartReplace swaps the whole cart for the submitted lines. Prices are
// re-read from the menu, never trusted from the payload.
func CartReplace(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartReplaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]cartsvc.ReplaceLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, cartsvc.ReplaceLineInput{
				ItemID:       line.ItemID,
				Quantity:     line.Quantity,
				UnitFlavours: line.UnitFlavours,
			})
		}

		state, err := svc.ReplaceAll(r.Context(), userID, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CartSetUnitFlavours replaces the flavour selection of a single unit. The
// toggle endpoint is the rule-checked path; this one writes the ids as given
// and exists for cart restores.
func CartSetUnitFlavours(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitIndex, err := validators.IntParam(r, "unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload unitFlavoursRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.UpdateUnitFlavours(r.Context(), userID, itemID, unitIndex, payload.FlavourIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// UnitFlavoursGet serves the grouped flavour options for one unit of a cart
// line, checked state included.
func UnitFlavoursGet(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitIndex, err := validators.IntParam(r, "unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.UnitSelection(r.Context(), userID, itemID, unitIndex)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUnitSelectionResponse(groups))
	}
}

// UnitFlavourToggle flips one flavour for a unit and returns the resulting
// selection. Toggles refused by the group rules come back unchanged.
func UnitFlavourToggle(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		userID, err := cartUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitIndex, err := validators.IntParam(r, "unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload flavourToggleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.ToggleUnitFlavour(r.Context(), userID, itemID, unitIndex, payload.FlavourID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUnitSelectionResponse(groups))
	}
}

func newUnitSelectionResponse(groups []flavourssvc.Group) unitSelectionResponse {
	selected := flavourssvc.SelectedIDs(groups)
	if selected == nil {
		selected = []int64{}
	}
	return unitSelectionResponse{
		Groups:      groups,
		Summary:     flavourssvc.Summary(groups),
		SelectedIDs: selected,
	}
}
