/*
scenarios.go - Demo scenario definitions and loaders

PURPOSE:
  Named seed datasets for demos and manual testing. Loading a scenario
  replaces the engine with a fresh one (same clock) and applies the seed
  through the engine's own operations, so seeded state obeys every rule
  a live request would.

SCENARIOS:
  empty      A clean slate
  boutique   A small furniture shop with stock on the shelves
  clearance  Discounted goods with purchase and return history

SEE ALSO:
  - handlers.go: Handler struct whose engine gets swapped
  - cmd/server/main.go: Optional scenario load at startup
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/storefront-engine/market"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo dataset.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CurrentScenarioDTO reports the most recently loaded scenario.
type CurrentScenarioDTO struct {
	Scenario string `json:"scenario"`
}

// LoadScenarioResponse confirms a load.
type LoadScenarioResponse struct {
	Scenario string `json:"scenario"`
	Products int    `json:"products"`
}

type scenario struct {
	ScenarioDTO
	apply func(svc *market.Service, owner market.Identity) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			Name:        "empty",
			Description: "A clean slate: no products, no buyers, no transactions",
		},
		apply: func(svc *market.Service, owner market.Identity) error { return nil },
	},
	{
		ScenarioDTO: ScenarioDTO{
			Name:        "boutique",
			Description: "A small furniture shop with stock on the shelves",
		},
		apply: loadBoutique,
	},
	{
		ScenarioDTO: ScenarioDTO{
			Name:        "clearance",
			Description: "Discounted goods with purchase and return history",
		},
		apply: loadClearance,
	},
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario reports the most recently loaded scenario, or "".
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, CurrentScenarioDTO{Scenario: current})
}

// LoadScenario replaces the engine with a freshly seeded one.
// POST /api/scenarios/{name}
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if _, ok := findScenario(name); !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}
	if err := h.LoadScenarioByName(name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	svc := h.service()
	zerolog.Ctx(r.Context()).Info().Str("scenario", name).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Scenario: name,
		Products: len(svc.ListProducts()),
	})
}

// LoadScenarioByName seeds a fresh engine with the named scenario and
// swaps it in. The clock carries over; logical time never rewinds.
func (h *Handler) LoadScenarioByName(name string) error {
	s, ok := findScenario(name)
	if !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}

	svc, err := market.NewService(h.clock, market.SingleOwner(h.owner))
	if err != nil {
		return err
	}
	if err := s.apply(svc, h.owner); err != nil {
		return fmt.Errorf("seeding scenario %q: %w", name, err)
	}

	h.mu.Lock()
	h.svc = svc
	h.currentScenario = name
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS - Seed through the engine's own operations
// =============================================================================

func loadBoutique(svc *market.Service, owner market.Identity) error {
	products := []struct {
		name  string
		stock int64
		price string
	}{
		{"walnut desk", 4, "349.00"},
		{"reading lamp", 12, "42.50"},
		{"oak chair", 8, "89.99"},
		{"wool rug", 3, "215.00"},
	}
	for _, p := range products {
		if _, err := svc.AddProduct(p.name, p.stock, decimal.RequireFromString(p.price), owner); err != nil {
			return err
		}
	}
	return nil
}

func loadClearance(svc *market.Service, owner market.Identity) error {
	if err := loadBoutique(svc, owner); err != nil {
		return err
	}

	// Mark everything down
	reductions := []struct{ name, price string }{
		{"walnut desk", "199.00"},
		{"reading lamp", "19.99"},
		{"oak chair", "45.00"},
		{"wool rug", "120.00"},
	}
	for _, r := range reductions {
		if err := svc.SetPrice(r.name, decimal.RequireFromString(r.price), owner); err != nil {
			return err
		}
	}

	// A little trading history: two shoppers, one change of heart
	lamp, ok := svc.FindProduct("reading lamp")
	if !ok {
		return fmt.Errorf("seed product missing: reading lamp")
	}
	chair, ok := svc.FindProduct("oak chair")
	if !ok {
		return fmt.Errorf("seed product missing: oak chair")
	}

	if _, err := svc.Buy(lamp.ID, 2, "demo-alice"); err != nil {
		return err
	}
	if _, err := svc.Buy(chair.ID, 1, "demo-alice"); err != nil {
		return err
	}
	if _, err := svc.Buy(lamp.ID, 1, "demo-bob"); err != nil {
		return err
	}
	return svc.ReturnByProduct(chair.ID, "demo-alice")
}
