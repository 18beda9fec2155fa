package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"slotbook/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Readiness check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.services.Members.ListMembers(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to fetch members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListBookingsRequest{
		StartDate: strings.TrimSpace(q.Get("startDate")),
		EndDate:   strings.TrimSpace(q.Get("endDate")),
	}

	bookings, err := s.services.Bookings.ListBookings(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch bookings")
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := s.services.Bookings.CreateBooking(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to create booking")
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CancelBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.services.Bookings.CancelBooking(r.Context(), req); err != nil {
		s.fail(w, r, err, "Failed to cancel booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	days, err := s.services.Bookings.Calendar(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch calendar")
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *HTTPServer) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.services.Comments.ListComments(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := s.services.Comments.CreateComment(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to create comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *HTTPServer) handleParticipation(w http.ResponseWriter, r *http.Request) {
	q, ok := participationQuery(w, r)
	if !ok {
		return
	}

	rows, err := s.services.Participation.Participation(r.Context(), q)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch participation")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *HTTPServer) handleParticipationExport(w http.ResponseWriter, r *http.Request) {
	q, ok := participationQuery(w, r)
	if !ok {
		return
	}

	name, data, err := s.services.Participation.ExportParticipation(r.Context(), q)
	if err != nil {
		s.fail(w, r, err, "Failed to export participation")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := service.ActivityQuery{
		Date: strings.TrimSpace(values.Get("date")),
	}
	// Некорректный limit заменяется значением по умолчанию
	if limit, err := strconv.Atoi(strings.TrimSpace(values.Get("limit"))); err == nil {
		q.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("memberId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "memberId must be a positive integer")
			return
		}
		q.MemberID = id
	}

	entries, err := s.services.Activity.ListActivity(r.Context(), q)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch activity")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// fail writes the mapped error response. Server-side detail is logged, never sent.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg(fallback)
	}
	writeError(w, status, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func participationQuery(w http.ResponseWriter, r *http.Request) (service.ParticipationQuery, bool) {
	var q service.ParticipationQuery
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("month")); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return q, false
		}
		q.Month = month
	}
	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1 || year > 9999 {
			writeError(w, http.StatusBadRequest, "year must be between 1 and 9999")
			return q, false
		}
		q.Year = year
	}
	return q, true
}
