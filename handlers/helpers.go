package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ldemarco/olympiad-system/repositories"
	"github.com/ldemarco/olympiad-system/services"
)

type jsonResponse map[string]interface{}

const pinHeader = "X-Olympiad-PIN"

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// preconditionFailedResponse reports a stale If-Match. The body and the
// ETag header both carry the version currently stored so the client can
// refresh and retry.
func preconditionFailedResponse(w http.ResponseWriter, r *http.Request, currentVersion int) {
	w.Header().Set("ETag", etagForVersion(currentVersion))
	env := jsonResponse{
		"error":           "version mismatch: resource was modified by someone else",
		"current_version": currentVersion,
	}
	if err := writeJSON(w, http.StatusPreconditionFailed, env, nil); err != nil {
		slog.Error("failed to write precondition response", slog.Any("error", err))
	}
}

func preconditionRequiredResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusPreconditionRequired, "If-Match header is required for this operation")
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}

func etagForVersion(version int) string {
	return strconv.Quote(strconv.Itoa(version))
}

// ifMatchVersion parses the If-Match header into a version number.
// Accepts both quoted and bare forms; weak validators keep their value.
func ifMatchVersion(r *http.Request) (int, bool, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return 0, false, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, "\"")
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return 0, true, fmt.Errorf("invalid If-Match header %q", r.Header.Get("If-Match"))
	}
	return version, true, nil
}

func pinFromHeader(r *http.Request) string {
	return r.Header.Get(pinHeader)
}

// mapServiceErrorToHTTP translates service-layer errors into HTTP
// responses. Version conflicts carry the stored version through to the
// 412 body.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var versionConflict *repositories.VersionConflictError

	switch {
	case errors.As(err, &versionConflict):
		preconditionFailedResponse(w, r, versionConflict.CurrentVersion)

	case errors.Is(err, services.ErrOlympiadNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrMatchNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrOlympiadNameConflict),
		errors.Is(err, services.ErrPlayerNameConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrEventNameConflict):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrPINFormatInvalid),
		errors.Is(err, services.ErrNotEnoughTeams),
		errors.Is(err, services.ErrDuplicateTeamID),
		errors.Is(err, services.ErrNoStagesDefined),
		errors.Is(err, services.ErrUnknownStageKind),
		errors.Is(err, services.ErrUnknownScoreKind),
		errors.Is(err, services.ErrTeamNotInOlympiad),
		errors.Is(err, services.ErrScoreTeamInvalid),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrInvalidLogoFormat):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrPINRequired),
		errors.Is(err, services.ErrInvalidPIN):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrUploaderNotConfigured):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
