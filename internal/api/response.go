package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"slotbook/internal/database"
	"slotbook/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// errorStatus maps a domain error to a status code and the message shown to
// the client. Unknown errors map to 500 and the fallback message.
func errorStatus(err error, fallback string) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, database.ErrCapacityExceeded),
		errors.Is(err, database.ErrDuplicateBooking),
		errors.Is(err, service.ErrOutsideWindow):
		return http.StatusBadRequest, sentence(rootMessage(err))
	case errors.Is(err, database.ErrBookingNotFound),
		errors.Is(err, database.ErrMemberNotFound):
		return http.StatusNotFound, sentence(rootMessage(err))
	default:
		return http.StatusInternalServerError, fallback
	}
}

// rootMessage returns the text of the sentinel at the bottom of the wrap chain.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
