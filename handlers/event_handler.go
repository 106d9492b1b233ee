package handlers

import (
	"net/http"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	events, err := h.eventService.List(r.Context(), olympiadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"events": events}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), olympiadID, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateWithStages(r.Context(), olympiadID, input, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
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
		Name   string             `json:"name"`
		Status models.EventStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Update(r.Context(), olympiadID, eventID, input.Name, input.Status, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStage moves a stage through pending -> in_progress -> completed.
func (h *EventHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := getIDFromURL(r, "stageID")
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
		Status models.StageStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage, err := h.eventService.UpdateStageStatus(r.Context(), olympiadID, eventID, stageID, input.Status, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"stage": stage}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
		return
	}

	if err := h.eventService.Delete(r.Context(), olympiadID, eventID, pin); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBracket returns the event together with every stage's match tree.
func (h *EventHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetBracket(r.Context(), olympiadID, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListStageKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := h.eventService.ListStageKinds(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"stage_kinds": kinds}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
