package handlers

import (
	"net/http"

	"github.com/ldemarco/olympiad-system/middleware"
	"github.com/ldemarco/olympiad-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Get(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(match.Version))
	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update requires a Bearer token scoped to the olympiad the match
// belongs to, plus an If-Match precondition.
func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	olympiadID, err := middleware.OlympiadIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify olympiad scope")
		return
	}

	version, present, err := ifMatchVersion(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !present {
		preconditionRequiredResponse(w, r)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Update(r.Context(), matchID, olympiadID, input, version)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(match.Version))
	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
