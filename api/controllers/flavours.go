package controllers

import (
	"net/http"

	"github.com/nostrapizza/storefront-backend/api/responses"
	"github.com/nostrapizza/storefront-backend/api/validators"
	flavourssvc "github.com/nostrapizza/storefront-backend/internal/flavours"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
)

type flavourGroupRequest struct {
	Title string `json:"title" validate:"required"`
}

type flavourRequest struct {
	Name           string `json:"name" validate:"required"`
	FlavourGroupID int64  `json:"flavour_group_id" validate:"required,gt=0"`
	Available      bool   `json:"available"`
}

// FlavourGroupList returns every flavour group with its flavours.
func FlavourGroupList(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		groups, err := svc.ListGroups(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groups)
	}
}

// FlavourGroupCreate adds a flavour group.
func FlavourGroupCreate(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		var payload flavourGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), flavourssvc.GroupInput{Title: payload.Title})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

// FlavourGroupUpdate renames a flavour group.
func FlavourGroupUpdate(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload flavourGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.UpdateGroup(r.Context(), id, flavourssvc.GroupInput{Title: payload.Title})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

// FlavourGroupDelete removes a flavour group and its flavours.
func FlavourGroupDelete(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGroup(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// FlavourList returns flavours, optionally filtered by a name search.
func FlavourList(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		flavoursList, err := svc.ListFlavours(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flavoursList)
	}
}

// FlavourCreate adds a flavour to a group.
func FlavourCreate(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		var payload flavourRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavour, err := svc.CreateFlavour(r.Context(), flavourssvc.FlavourInput{
			Name:           payload.Name,
			FlavourGroupID: payload.FlavourGroupID,
			Available:      payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, flavour)
	}
}

// FlavourUpdate replaces the mutable fields of a flavour.
func FlavourUpdate(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload flavourRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavour, err := svc.UpdateFlavour(r.Context(), id, flavourssvc.FlavourInput{
			Name:           payload.Name,
			FlavourGroupID: payload.FlavourGroupID,
			Available:      payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, flavour)
	}
}

// FlavourDelete removes a flavour.
func FlavourDelete(svc flavourssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavour service unavailable"))
			return
		}

		id, err := validators.Int64Param(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteFlavour(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
