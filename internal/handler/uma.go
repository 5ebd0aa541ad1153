package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yuta/grassuma/internal/apperror"
	"github.com/yuta/grassuma/internal/auth"
	"github.com/yuta/grassuma/internal/model"
	"github.com/yuta/grassuma/internal/service"
)

// UMAHandler exposes the creature game: catalog, collection, discovery,
// feeding. Response shapes follow what the SPA consumes.
type UMAHandler struct {
	uma *service.UMAService
}

func NewUMAHandler(uma *service.UMAService) *UMAHandler {
	return &UMAHandler{uma: uma}
}

// discoveredUMA is the card the client renders for a fresh discovery.
type discoveredUMA struct {
	ID          string `json:"id"`
	SpeciesID   int64  `json:"species_id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Rarity      int    `json:"rarity"`
	Habitat     string `json:"habitat"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	Affection   int    `json:"affection"`
}

// HandleListSpecies returns the full catalog, cheapest threshold first.
//
// HTTP: GET /api/uma/species (public — the encyclopedia page shows it
// before login)
func (h *UMAHandler) HandleListSpecies(w http.ResponseWriter, r *http.Request) {
	species, err := h.uma.ListSpecies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if species == nil {
		species = []model.Species{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"species": species})
}

// HandleListDiscoveries returns the caller's collection plus the account
// stats the client shows in the header.
//
// HTTP: GET /api/uma/discoveries (authenticated)
func (h *UMAHandler) HandleListDiscoveries(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	collection, err := h.uma.ListCollection(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	discoveries := collection.Discoveries
	if discoveries == nil {
		discoveries = []model.Discovery{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"discoveries": discoveries,
		"user_stats": map[string]any{
			"login":             collection.User.Login,
			"avatar_url":        collection.User.AvatarURL,
			"grass_power":       collection.User.GrassPower,
			"total_discoveries": collection.User.TotalDiscoveries,
		},
	})
}

// HandleDiscover runs one discovery ritual.
//
// HTTP: POST /api/uma/discover (authenticated)
//
// An empty pool is a 200 with success=false — it's a normal game state,
// not a client mistake. Only an unaffordable ritual is a 400.
func (h *UMAHandler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	result, err := h.uma.Discover(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	if !result.Found {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       false,
			"message":       "今発見できるUMAはいません。grass powerを貯めて出直そう！",
			"current_power": result.RemainingPower,
		})
		return
	}

	d := result.Discovery
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"discovered_uma": discoveredUMA{
			ID:          d.ID,
			SpeciesID:   d.SpeciesID,
			Name:        d.SpeciesName,
			Emoji:       d.Emoji,
			Rarity:      d.Rarity,
			Habitat:     d.Habitat,
			Description: d.Description,
			Level:       d.Level,
			Affection:   d.Affection,
		},
		"cost":            result.Cost,
		"remaining_power": result.RemainingPower,
	})
}

// feedRequest is the body for POST /api/uma/feed. A missing or zero
// feed_amount means "one standard meal".
type feedRequest struct {
	UMAID      string `json:"uma_id"`
	FeedAmount int    `json:"feed_amount"`
}

// HandleFeed spends grass power to grow one creature's affection.
//
// HTTP: POST /api/uma/feed (authenticated)
func (h *UMAHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.FeedAmount == 0 {
		req.FeedAmount = service.DefaultFeedAmount
	}

	result, err := h.uma.Feed(r.Context(), sess, req.UMAID, req.FeedAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "もぐもぐ……うれしそうだ！"
	if result.LevelUp {
		message = "もぐもぐ……レベルアップした！"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"results": map[string]any{
			"affection_gained": result.AffectionGained,
			"new_affection":    result.NewAffection,
			"new_level":        result.NewLevel,
			"level_up":         result.LevelUp,
			"power_used":       result.PowerUsed,
			"remaining_power":  result.RemainingPower,
		},
	})
}
