package handlers

import (
	"net/http"

	"github.com/ldemarco/olympiad-system/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.playerService.List(r.Context(), olympiadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"players": players}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Get(r.Context(), olympiadID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(player.Version))
	response := jsonResponse{"player": player}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Create(r.Context(), olympiadID, input.Name, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(player.Version))
	response := jsonResponse{"player": player}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Rename(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
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

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Rename(r.Context(), olympiadID, playerID, input.Name, pin, version)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(player.Version))
	response := jsonResponse{"player": player}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
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

	if err := h.playerService.Delete(r.Context(), olympiadID, playerID, pin, version); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
