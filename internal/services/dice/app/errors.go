package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/bloodroll/internal/platform/errors"
	"github.com/louisbranch/bloodroll/internal/platform/requestctx"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/reroll"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

var sentinelCodes = []struct {
	err  error
	code apperrors.Code
}{
	{sheet.ErrNotFound, apperrors.CodeCharacterNotFound},
	{overlay.ErrNoPool, apperrors.CodePoolNoSelection},
	{overlay.ErrEmptyPool, apperrors.CodePoolEmpty},
	{overlay.ErrInFlight, apperrors.CodeRollInFlight},
	{overlay.ErrAborted, apperrors.CodeRollAborted},
	{overlay.ErrUnknownKind, apperrors.CodeRollUnknownKind},
	{resolve.ErrInvalidFace, apperrors.CodeRollInvalidFace},
	{reroll.ErrNoSession, apperrors.CodeRerollNoSession},
	{reroll.ErrNothingSelected, apperrors.CodeRerollNothingSelected},
	{reroll.ErrInsufficientWillpower, apperrors.CodeRerollInsufficientWillpower},
	{reroll.ErrBloodSurge, apperrors.CodeRerollBloodSurge},
	{reroll.ErrNotSelectable, apperrors.CodeRerollNotSelectable},
}

// domainError converts controller and store errors into platform errors.
func domainError(err error) *apperrors.Error {
	var platform *apperrors.Error
	if errors.As(err, &platform) {
		return platform
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return apperrors.Wrap(s.code, err.Error(), err)
		}
	}
	return apperrors.Wrap(apperrors.CodeUnknown, err.Error(), err)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := domainError(err)
	status := appErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("dice: %s %s: %v", r.Method, r.URL.Path, err)
	}
	locale, message := appErr.Localize(requestctx.LocaleFromContext(r.Context()))
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    string(appErr.Code),
		Message: message,
		Locale:  locale,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("dice: encode response: %v", err)
	}
}
