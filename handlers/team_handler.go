package handlers

import (
	"errors"
	"net/http"

	"github.com/ldemarco/olympiad-system/services"
)

const maxLogoSize = 5 << 20 // 5MB

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.List(r.Context(), olympiadID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"teams": teams}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Get(r.Context(), olympiadID, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(team.Version))
	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
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
		Name      string `json:"name"`
		PlayerIDs []int  `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), olympiadID, input.Name, input.PlayerIDs, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(team.Version))
	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Rename(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
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

	team, err := h.teamService.Rename(r.Context(), olympiadID, teamID, input.Name, pin, version)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("ETag", etagForVersion(team.Version))
	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) SetPlayers(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
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
		PlayerIDs []int `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.SetPlayers(r.Context(), olympiadID, teamID, input.PlayerIDs, pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
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

	if err := h.teamService.Delete(r.Context(), olympiadID, teamID, pin, version); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	olympiadID, err := getIDFromURL(r, "olympiadID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pin := pinFromHeader(r)
	if pin == "" {
		unauthorizedResponse(w, r, services.ErrPINRequired.Error())
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("logo file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	team, err := h.teamService.UploadLogo(r.Context(), olympiadID, teamID, pin, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
