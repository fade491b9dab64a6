package store

import "github.com/life-master/apiserver/types"

// Descriptors for the four resource kinds. Field shape is the only thing
// that differs between kinds; all query logic lives in ResourceRepository.

func CategoryDescriptor() Descriptor[types.Category] {
	return Descriptor[types.Category]{
		Table:   "categories",
		Columns: []string{"name", "description"},
		Scan: func(s Scanner) (types.Category, error) {
			var c types.Category
			err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Creation, &c.UpdatedAt)
			return c, err
		},
		Args: func(c types.Category) []any {
			return []any{c.Name, c.Description}
		},
	}
}

func TaskDescriptor() Descriptor[types.Task] {
	return Descriptor[types.Task]{
		Table:   "tasks",
		Columns: []string{"title", "description", "completed", "due_date"},
		Scan: func(s Scanner) (types.Task, error) {
			var t types.Task
			err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.DueDate, &t.Creation, &t.UpdatedAt)
			return t, err
		},
		Args: func(t types.Task) []any {
			return []any{t.Title, t.Description, t.Completed, t.DueDate}
		},
	}
}

func NoteDescriptor() Descriptor[types.Note] {
	return Descriptor[types.Note]{
		Table:   "notes",
		Columns: []string{"title", "content"},
		Scan: func(s Scanner) (types.Note, error) {
			var n types.Note
			err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Creation, &n.UpdatedAt)
			return n, err
		},
		Args: func(n types.Note) []any {
			return []any{n.Title, n.Content}
		},
	}
}

func HabitDescriptor() Descriptor[types.Habit] {
	return Descriptor[types.Habit]{
		Table:   "habits",
		Columns: []string{"name", "description", "frequency", "target_value", "active"},
		Scan: func(s Scanner) (types.Habit, error) {
			var h types.Habit
			err := s.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency, &h.TargetValue, &h.Active, &h.Creation, &h.UpdatedAt)
			return h, err
		},
		Args: func(h types.Habit) []any {
			return []any{h.Name, h.Description, h.Frequency, h.TargetValue, h.Active}
		},
	}
}
