package handlers

import (
	"context"
	"net/http"

	"github.com/life-master/apiserver/types"
)

// EntityCounter reports how many resources of each kind an owner holds.
type EntityCounter interface {
	CountByOwner(ctx context.Context, ownerID int64) (map[types.Kind]int64, error)
}

// DashboardHandler aggregates per-kind resource counts for the caller.
type DashboardHandler struct {
	counter EntityCounter
}

func NewDashboardHandler(counter EntityCounter) *DashboardHandler {
	return &DashboardHandler{counter: counter}
}

// DashboardStats is the response shape of the stats endpoint.
type DashboardStats struct {
	CategoryCount int64 `json:"categoryCount"`
	TaskCount     int64 `json:"taskCount"`
	NoteCount     int64 `json:"noteCount"`
	HabitCount    int64 `json:"habitCount"`
	TotalEntities int64 `json:"totalEntities"`
}

// Stats returns the caller's resource counts across all four kinds.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.counter.CountByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	stats := DashboardStats{
		CategoryCount: counts[types.KindCategory],
		TaskCount:     counts[types.KindTask],
		NoteCount:     counts[types.KindNote],
		HabitCount:    counts[types.KindHabit],
	}
	stats.TotalEntities = stats.CategoryCount + stats.TaskCount + stats.NoteCount + stats.HabitCount

	writeJSON(w, http.StatusOK, stats)
}
