package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nostrapizza/storefront-backend/api/middleware"
	"github.com/nostrapizza/storefront-backend/api/responses"
	"github.com/nostrapizza/storefront-backend/api/validators"
	catalogsvc "github.com/nostrapizza/storefront-backend/internal/catalog"
	flavourssvc "github.com/nostrapizza/storefront-backend/internal/flavours"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
)

type menuItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Available   bool            `json:"available"`
	Image       string          `json:"image"`
}

type groupBindingRequest struct {
	MenuID   int64 `json:"menu_id"`
	Bindings []struct {
		FlavourGroupID int64 `json:"flavour_group_id" validate:"required,gt=0"`
		MaxQuantity    int   `json:"max_quantity" validate:"required,gt=0"`
	} `json:"bindings" validate:"required,dive"`
}

type menuListResponse struct {
	Items []catalogsvc.MenuEntry `json:"items"`
	Seq   *int64                 `json:"seq,omitempty"`
}

// MenuList serves the menu, merged with the caller's cart quantities when a
// token was presented. A numeric seq query parameter is echoed back so
// clients can drop stale responses.
func MenuList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		search := strings.TrimSpace(r.URL.Query().Get("search"))

		var seq *int64
		if raw := strings.TrimSpace(r.URL.Query().Get("seq")); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "seq must be an integer"))
				return
			}
			seq = &parsed
		}

		entries, err := svc.ListMenu(r.Context(), userID, search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, menuListResponse{Items: entries, Seq: seq})
	}
}

// MenuItemCreate adds a menu item.
func MenuItemCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload menuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), toItemInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// MenuItemUpdate replaces the mutable fields of a menu item.
func MenuItemUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload menuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), id, toItemInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// MenuItemDelete removes a menu item.
func MenuItemDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MenuFlavoursGet serves the flat flavour tuples bound to a menu item, the
// shape the storefront selection screen consumes.
func MenuFlavoursGet(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		menuID, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForMenu(r.Context(), menuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// MenuFlavoursBind creates the flavour group bindings of a menu item.
func MenuFlavoursBind(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return bindGroupsHandler(svc, logg, false)
}

// MenuFlavoursRebind replaces the flavour group bindings of a menu item.
func MenuFlavoursRebind(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return bindGroupsHandler(svc, logg, true)
}

func bindGroupsHandler(svc catalogsvc.Service, logg *logger.Logger, fromPath bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload groupBindingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		menuID := payload.MenuID
		if !fromPath && menuID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "menu_id must be a positive integer"))
			return
		}
		if fromPath {
			pathID, err := validators.Int64Param(r, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if menuID != 0 && menuID != pathID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "menu id mismatch"))
				return
			}
			menuID = pathID
		}

		bindings := make([]catalogsvc.GroupBindingInput, 0, len(payload.Bindings))
		for _, b := range payload.Bindings {
			bindings = append(bindings, catalogsvc.GroupBindingInput{
				FlavourGroupID: b.FlavourGroupID,
				MaxQuantity:    b.MaxQuantity,
			})
		}

		if err := svc.SetGroupBindings(r.Context(), menuID, bindings); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saved, err := svc.ListGroupBindings(r.Context(), menuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, saved)
	}
}

func toItemInput(payload menuItemRequest) catalogsvc.ItemInput {
	return catalogsvc.ItemInput{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Available:   payload.Available,
		Image:       payload.Image,
	}
}
