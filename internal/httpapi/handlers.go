package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/questlog/backend/internal/campaigns"
	"github.com/questlog/backend/internal/store"
)

type createEventRequest struct {
	CampaignID  string `json:"campaignId"`
	Type        string `json:"type"`
	Result      *int   `json:"result"`
	CharacterID string `json:"characterId,omitempty"`
	Formula     string `json:"formula,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateEvent persists one campaign event and returns it. Broadcasting to
// the room is the caller's job after this responds, over its websocket.
func CreateEvent(events store.EventStore, dir campaigns.Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad json"})
			return
		}

		if req.CampaignID != "" {
			ok, err := dir.CampaignExists(r.Context(), req.CampaignID)
			if err != nil {
				log.Error("campaign lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "campaign lookup failed"})
				return
			}
			if !ok {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "campaign not found"})
				return
			}
		}

		ev, err := events.Create(r.Context(), store.CreateParams{
			CampaignID:  req.CampaignID,
			Type:        req.Type,
			Result:      req.Result,
			CharacterID: req.CharacterID,
			Formula:     req.Formula,
		})
		if err != nil {
			if errors.Is(err, store.ErrValidation) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "campaignId, type and result are required"})
				return
			}
			log.Error("create event failed", zap.String("campaign", req.CampaignID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "create failed"})
			return
		}

		writeJSON(w, http.StatusCreated, ev)
	}
}

// PageEvents serves one page of a campaign's history, newest first. The
// offset is whatever count the client has already loaded.
func PageEvents(events store.EventStore, dir campaigns.Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := r.URL.Query().Get("campaignId")
		if campaignID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing campaignId"})
			return
		}

		offset := 0
		if raw := r.URL.Query().Get("offset"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad offset"})
				return
			}
			offset = n
		}

		ok, err := dir.CampaignExists(r.Context(), campaignID)
		if err != nil {
			log.Error("campaign lookup failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "campaign lookup failed"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "campaign not found"})
			return
		}

		page, err := events.Page(r.Context(), campaignID, offset, store.DefaultPageSize)
		if err != nil {
			log.Error("page events failed", zap.String("campaign", campaignID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "page failed"})
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
