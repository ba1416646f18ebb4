package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gramboard/instagram-insights/client"
	"github.com/gramboard/instagram-insights/filter"
	"github.com/gramboard/instagram-insights/metrics"
	"github.com/gramboard/instagram-insights/model"
	"github.com/gramboard/instagram-insights/state"
)

type errorResponse struct {
	Error string `json:"error"`
}

type mediaResponse struct {
	Items      []model.MediaItem `json:"items"`
	Total      int               `json:"total"`
	Aggregates metrics.Aggregate `json:"aggregates"`
}

type aggregatesResponse struct {
	By      string           `json:"by"`
	Buckets []metrics.Bucket `json:"buckets"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload, err := s.payload(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := s.payload(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	items := filters.Apply(payload.Media)
	sortKey := r.URL.Query().Get("sort")
	if sortKey != "" {
		ascending := strings.EqualFold(r.URL.Query().Get("order"), "asc")
		items = filter.SortByMetric(items, sortKey, ascending)
	}

	writeJSON(w, http.StatusOK, mediaResponse{
		Items:      items,
		Total:      len(items),
		Aggregates: metrics.AggregateItems(items),
	})
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	by := r.URL.Query().Get("by")
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := s.payload(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	items := filters.Apply(payload.Media)

	var buckets []metrics.Bucket
	switch by {
	case "weekday":
		buckets = metrics.AggregateByWeekday(items)
	case "hour":
		buckets = metrics.AggregateByHour(items)
	case "media_type":
		buckets = metrics.AggregateByMediaType(items)
	case "week":
		buckets = metrics.AggregateByWeek(items)
	default:
		writeError(w, http.StatusBadRequest, "unknown aggregation: use by=weekday|hour|media_type|week")
		return
	}

	writeJSON(w, http.StatusOK, aggregatesResponse{By: by, Buckets: buckets})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "snapshot store not configured")
		return
	}
	infos, err := s.store.List(r.Context(), s.accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if infos == nil {
		infos = []state.SnapshotInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseFilters builds media filters from query parameters. Empty parameters
// leave the corresponding filter unset.
func parseFilters(query map[string][]string) (filter.Filters, error) {
	get := func(key string) string {
		if vals := query[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	var f filter.Filters
	if raw := get("from"); raw != "" {
		from, err := parseDateParam(raw)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if raw := get("to"); raw != "" {
		to, err := parseDateParam(raw)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	if raw := get("weekday"); raw != "" {
		weekday, ok := weekdayNames[strings.ToLower(raw)]
		if !ok {
			return f, &badParamError{param: "weekday", value: raw}
		}
		f.Weekday = &weekday
	}
	if raw := get("media_type"); raw != "" {
		f.MediaType = strings.ToUpper(raw)
	}
	if raw := get("week_of_month"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil || week < 1 || week > 5 {
			return f, &badParamError{param: "week_of_month", value: raw}
		}
		f.WeekOfMonth = week
	}
	f.Search = get("search")
	return f, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type badParamError struct {
	param string
	value string
}

func (e *badParamError) Error() string {
	return "invalid value for " + e.param + ": " + e.value
}

// parseDateParam accepts either a date (2026-08-20) or a full RFC3339
// timestamp.
func parseDateParam(raw string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &badParamError{param: "date", value: raw}
	}
	return ts, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeUpstreamError maps fetch failures to HTTP statuses. Auth problems
// surface as 401 so the operator knows the token needs attention, anything
// else is a bad gateway.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if client.IsAuthError(err) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
