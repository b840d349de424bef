package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nostrapizza/storefront-backend/api/middleware"
	cartsvc "github.com/nostrapizza/storefront-backend/internal/cart"
	flavourssvc "github.com/nostrapizza/storefront-backend/internal/flavours"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
)

type cartServiceStub struct {
	state *cartsvc.State
	err   error

	addedItemID int64
	addedQty    int
	setQty      int
	removedID   int64
}

func (s *cartServiceStub) Get(context.Context, string) (*cartsvc.State, error) {
	return s.state, s.err
}

func (s *cartServiceStub) AddItem(_ context.Context, _ string, itemID int64, qty int) (*cartsvc.State, error) {
	s.addedItemID = itemID
	s.addedQty = qty
	return s.state, s.err
}

func (s *cartServiceStub) SetQuantity(_ context.Context, _ string, _ int64, qty int) (*cartsvc.State, error) {
	s.setQty = qty
	return s.state, s.err
}

func (s *cartServiceStub) UpdateUnitFlavours(context.Context, string, int64, int, []int64) (*cartsvc.State, error) {
	return s.state, s.err
}

func (s *cartServiceStub) RemoveItem(_ context.Context, _ string, itemID int64) (*cartsvc.State, error) {
	s.removedID = itemID
	return s.state, s.err
}

func (s *cartServiceStub) Clear(context.Context, string) (*cartsvc.State, error) {
	return s.state, s.err
}

func (s *cartServiceStub) ReplaceAll(context.Context, string, []cartsvc.ReplaceLineInput) (*cartsvc.State, error) {
	return s.state, s.err
}

type flavourServiceStub struct {
	groups  []flavourssvc.Group
	toggled int64
	err     error
}

func (s *flavourServiceStub) ListForMenu(context.Context, int64) ([]flavourssvc.MenuFlavourRow, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) UnitSelection(context.Context, string, int64, int) ([]flavourssvc.Group, error) {
	return s.groups, s.err
}

func (s *flavourServiceStub) ToggleUnitFlavour(_ context.Context, _ string, _ int64, _ int, flavourID int64) ([]flavourssvc.Group, error) {
	s.toggled = flavourID
	return s.groups, s.err
}

func (s *flavourServiceStub) ListGroups(context.Context) ([]models.FlavourGroup, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) ListFlavours(context.Context, string) ([]models.Flavour, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) CreateGroup(context.Context, flavourssvc.GroupInput) (*models.FlavourGroup, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) UpdateGroup(context.Context, int64, flavourssvc.GroupInput) (*models.FlavourGroup, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) DeleteGroup(context.Context, int64) error { panic("unimplemented") }

func (s *flavourServiceStub) CreateFlavour(context.Context, flavourssvc.FlavourInput) (*models.Flavour, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) UpdateFlavour(context.Context, int64, flavourssvc.FlavourInput) (*models.Flavour, error) {
	panic("unimplemented")
}

func (s *flavourServiceStub) DeleteFlavour(context.Context, int64) error { panic("unimplemented") }

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for key, value := range params {
		rc.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartFetchSuccess(t *testing.T) {
	state := &cartsvc.State{
		Lines: []cartsvc.Line{{ID: 7, Name: "Fugazzeta", Price: decimal.NewFromInt(900), Quantity: 2}},
		Total: decimal.NewFromInt(1800),
	}
	handler := CartFetch(&cartServiceStub{state: state}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.State `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Lines) != 1 || envelope.Data.Lines[0].Name != "Fugazzeta" {
		t.Fatalf("unexpected cart lines: %+v", envelope.Data.Lines)
	}
}

func TestCartFetchMissingUserContext(t *testing.T) {
	handler := CartFetch(&cartServiceStub{state: cartsvc.NewState()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	svc := &cartServiceStub{state: cartsvc.NewState()}
	handler := CartAddItem(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"item_id":7,"quantity":0}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.addedItemID != 0 {
		t.Fatal("service should not be reached on validation failure")
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	svc := &cartServiceStub{state: cartsvc.NewState()}
	handler := CartAddItem(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"item_id":7,"quantity":3}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.addedItemID != 7 || svc.addedQty != 3 {
		t.Fatalf("unexpected add call: item=%d qty=%d", svc.addedItemID, svc.addedQty)
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	svc := &cartServiceStub{state: cartsvc.NewState()}
	handler := CartSetQuantity(svc, nil)

	req := authedRequest(http.MethodPut, "/api/v1/cart/items/7/quantity", `{"quantity":0}`)
	req = withURLParams(req, map[string]string{"id": "7"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.removedID != 7 {
		t.Fatalf("expected removal of item 7, got %d", svc.removedID)
	}
	if svc.setQty != 0 {
		t.Fatal("SetQuantity should not be called for zero quantity")
	}
}

func TestUnitFlavourToggleReturnsSelection(t *testing.T) {
	groups := []flavourssvc.Group{
		{
			Title:       "Gustos",
			MaxQuantity: 2,
			Options: []flavourssvc.Option{
				{ID: 1, Name: "Jamón", Available: true, Checked: true},
				{ID: 2, Name: "Rúcula", Available: true, Checked: true},
				{ID: 3, Name: "Anchoas", Available: true},
			},
		},
	}
	svc := &flavourServiceStub{groups: groups}
	handler := UnitFlavourToggle(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/cart/items/7/units/0/flavours/toggle", `{"flavour_id":2}`)
	req = withURLParams(req, map[string]string{"id": "7", "unit": "0"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.toggled != 2 {
		t.Fatalf("expected toggle of flavour 2, got %d", svc.toggled)
	}

	var envelope struct {
		Data unitSelectionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Summary != "Jamón, Rúcula" {
		t.Fatalf("unexpected summary: %q", envelope.Data.Summary)
	}
	if len(envelope.Data.SelectedIDs) != 2 {
		t.Fatalf("expected two selected ids, got %v", envelope.Data.SelectedIDs)
	}
}

func TestUnitFlavoursGetEmptySelection(t *testing.T) {
	svc := &flavourServiceStub{groups: []flavourssvc.Group{}}
	handler := UnitFlavoursGet(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/cart/items/7/units/0/flavours", "")
	req = withURLParams(req, map[string]string{"id": "7", "unit": "0"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data unitSelectionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SelectedIDs == nil {
		t.Fatal("selected_ids should encode as an empty array, not null")
	}
}
