package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/life-master/apiserver/internal/pagination"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/types"
)

// Resources bundles the per-kind services plus relation support, as built
// by the server wiring.
type Resources struct {
	Categories *services.ResourceService[types.Category]
	Tasks      *services.ResourceService[types.Task]
	Notes      *services.ResourceService[types.Note]
	Habits     *services.ResourceService[types.Habit]
	Relations  *services.RelationService
}

// ResourceRoutes registers the four resource kinds on the given router.
func ResourceRoutes(r chi.Router, res *Resources) {
	r.Route("/categories", NewCategoryHandler(res).Router)
	r.Route("/tasks", NewTaskHandler(res).Router)
	r.Route("/notes", NewNoteHandler(res).Router)
	r.Route("/habits", NewHabitHandler(res).Router)
}

// Sort whitelists map client sortBy names to table columns. Anything not
// listed falls back to the kind's default sort.
var (
	categoryPaging = pagination.Config{
		DefaultSort: "id",
		Sortable: map[string]string{
			"id":          "id",
			"name":        "name",
			"description": "description",
			"creation":    "created_at",
		},
	}

	taskPaging = pagination.Config{
		DefaultSort: "id",
		Sortable: map[string]string{
			"id":          "id",
			"title":       "title",
			"description": "description",
			"completed":   "completed",
			"dueDate":     "due_date",
			"creation":    "created_at",
		},
	}

	notePaging = pagination.Config{
		DefaultSort: "id",
		Sortable: map[string]string{
			"id":       "id",
			"title":    "title",
			"creation": "created_at",
		},
	}

	habitPaging = pagination.Config{
		DefaultSort: "id",
		Sortable: map[string]string{
			"id":          "id",
			"name":        "name",
			"description": "description",
			"frequency":   "frequency",
			"targetValue": "target_value",
			"active":      "active",
			"creation":    "created_at",
		},
	}
)

func NewCategoryHandler(res *Resources) *ResourceHandler[types.Category] {
	return &ResourceHandler[types.Category]{
		svc:       res.Categories,
		relations: res.Relations,
		paging:    categoryPaging,
		decode:    decodeCategory,
		merge:     mergeCategory,
		setID: func(c types.Category, id int64) types.Category {
			c.ID = id
			return c
		},
		related: map[string]RelatedResource{
			"tasks":  relatedLister(res.Tasks, types.KindCategory, taskPaging),
			"notes":  relatedLister(res.Notes, types.KindCategory, notePaging),
			"habits": relatedLister(res.Habits, types.KindCategory, habitPaging),
		},
	}
}

func NewTaskHandler(res *Resources) *ResourceHandler[types.Task] {
	return &ResourceHandler[types.Task]{
		svc:       res.Tasks,
		relations: res.Relations,
		paging:    taskPaging,
		decode:    decodeTask,
		merge:     mergeTask,
		setID: func(t types.Task, id int64) types.Task {
			t.ID = id
			return t
		},
		related: map[string]RelatedResource{
			"categories": relatedLister(res.Categories, types.KindTask, categoryPaging),
			"notes":      relatedLister(res.Notes, types.KindTask, notePaging),
			"habits":     relatedLister(res.Habits, types.KindTask, habitPaging),
		},
	}
}

func NewNoteHandler(res *Resources) *ResourceHandler[types.Note] {
	return &ResourceHandler[types.Note]{
		svc:       res.Notes,
		relations: res.Relations,
		paging:    notePaging,
		decode:    decodeNote,
		merge:     mergeNote,
		setID: func(n types.Note, id int64) types.Note {
			n.ID = id
			return n
		},
		related: map[string]RelatedResource{
			"categories": relatedLister(res.Categories, types.KindNote, categoryPaging),
			"tasks":      relatedLister(res.Tasks, types.KindNote, taskPaging),
			"habits":     relatedLister(res.Habits, types.KindNote, habitPaging),
		},
	}
}

func NewHabitHandler(res *Resources) *ResourceHandler[types.Habit] {
	return &ResourceHandler[types.Habit]{
		svc:       res.Habits,
		relations: res.Relations,
		paging:    habitPaging,
		decode:    decodeHabit,
		merge:     mergeHabit,
		setID: func(h types.Habit, id int64) types.Habit {
			h.ID = id
			return h
		},
		related: map[string]RelatedResource{
			"categories": relatedLister(res.Categories, types.KindHabit, categoryPaging),
			"tasks":      relatedLister(res.Tasks, types.KindHabit, taskPaging),
			"notes":      relatedLister(res.Notes, types.KindHabit, notePaging),
		},
	}
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return validationError("invalid request body")
	}
	return nil
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func decodeCategory(r *http.Request, ownerID int64) (types.Category, error) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Category{}, err
	}

	category := types.Category{UserID: ownerID}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return types.Category{}, validationError("name is required")
	}
	category.Name = strings.TrimSpace(*req.Name)
	if req.Description != nil {
		category.Description = *req.Description
	}
	return category, nil
}

func mergeCategory(existing types.Category, r *http.Request) (types.Category, error) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Category{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return types.Category{}, validationError("name is required")
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	return existing, nil
}

type taskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Completed   *bool           `json:"completed"`
	DueDate     *types.DateTime `json:"dueDate"`
}

func decodeTask(r *http.Request, ownerID int64) (types.Task, error) {
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Task{}, err
	}

	task := types.Task{UserID: ownerID}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return types.Task{}, validationError("title is required")
	}
	task.Title = strings.TrimSpace(*req.Title)
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.DueDate != nil {
		due := req.DueDate.Time()
		task.DueDate = &due
	}
	return task, nil
}

func mergeTask(existing types.Task, r *http.Request) (types.Task, error) {
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Task{}, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return types.Task{}, validationError("title is required")
		}
		existing.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Completed != nil {
		existing.Completed = *req.Completed
	}
	if req.DueDate != nil {
		due := req.DueDate.Time()
		existing.DueDate = &due
	}
	return existing, nil
}

type noteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func decodeNote(r *http.Request, ownerID int64) (types.Note, error) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Note{}, err
	}

	note := types.Note{UserID: ownerID}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return types.Note{}, validationError("title is required")
	}
	note.Title = strings.TrimSpace(*req.Title)
	if req.Content != nil {
		note.Content = *req.Content
	}
	return note, nil
}

func mergeNote(existing types.Note, r *http.Request) (types.Note, error) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Note{}, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return types.Note{}, validationError("title is required")
		}
		existing.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		existing.Content = *req.Content
	}
	return existing, nil
}

type habitRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	TargetValue *int    `json:"targetValue"`
	Active      *bool   `json:"active"`
}

func decodeHabit(r *http.Request, ownerID int64) (types.Habit, error) {
	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Habit{}, err
	}

	// New habits default to daily tracking and start active.
	habit := types.Habit{UserID: ownerID, Frequency: "DAILY", TargetValue: 1, Active: true}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return types.Habit{}, validationError("name is required")
	}
	habit.Name = strings.TrimSpace(*req.Name)
	if req.Description != nil {
		habit.Description = *req.Description
	}
	if req.Frequency != nil && strings.TrimSpace(*req.Frequency) != "" {
		habit.Frequency = strings.ToUpper(strings.TrimSpace(*req.Frequency))
	}
	if req.TargetValue != nil {
		habit.TargetValue = *req.TargetValue
	}
	if req.Active != nil {
		habit.Active = *req.Active
	}
	return habit, nil
}

func mergeHabit(existing types.Habit, r *http.Request) (types.Habit, error) {
	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Habit{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return types.Habit{}, validationError("name is required")
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Frequency != nil && strings.TrimSpace(*req.Frequency) != "" {
		existing.Frequency = strings.ToUpper(strings.TrimSpace(*req.Frequency))
	}
	if req.TargetValue != nil {
		existing.TargetValue = *req.TargetValue
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}
	return existing, nil
}
