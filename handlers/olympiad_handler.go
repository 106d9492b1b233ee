package handlers

import (
	"errors"
	"net/http"

	"github.com/ldemarco/olympiad-system/services"
)

type OlympiadHandler struct {
	olympiadService services.OlympiadService
}

func NewOlympiadHandler(os services.OlympiadService) *OlympiadHandler {
	return &OlympiadHandler{olympiadService: os}
}

func (h *OlympiadHandler) List(w http.ResponseWriter, r *http.Request) {
	olympiads, err := h.olympiadService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"olympiads": olympiads}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OlympiadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	olympiad, err := h.olympiadService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(olympiad.Version))
	response := jsonResponse{"olympiad": olympiad}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OlympiadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
		return
	}

	olympiad, err := h.olympiadService.Create(r.Context(), input.Name, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(olympiad.Version))
	response := jsonResponse{"olympiad": olympiad}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OlympiadHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "olympiadID")
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

	olympiad, err := h.olympiadService.Rename(r.Context(), id, input.Name, pin, version)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(olympiad.Version))
	response := jsonResponse{"olympiad": olympiad}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *OlympiadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "olympiadID")
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

	if err := h.olympiadService.Delete(r.Context(), id, pin, version); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OlympiadHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PIN string `json:"pin"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PIN == "" {
		badRequestResponse(w, r, errors.New("pin is required"))
		return
	}

	token, err := h.olympiadService.VerifyPIN(r.Context(), id, input.PIN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"token": token}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
