package types

import "time"

// Kind identifies one of the four user-owned resource kinds.
type Kind string

const (
	KindCategory Kind = "CATEGORY"
	KindTask     Kind = "TASK"
	KindNote     Kind = "NOTE"
	KindHabit    Kind = "HABIT"
)

// ParseKind validates a raw entity-type string against the fixed kind set.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindCategory, KindTask, KindNote, KindHabit:
		return Kind(raw), true
	}
	return "", false
}

// Entity is implemented by every user-owned resource type.
type Entity interface {
	EntityID() int64
	OwnerID() int64
}

// Category groups tasks, notes and habits under a user-defined label.
type Category struct {
	// ID is the unique identifier of the category.
	ID int64 `json:"id" db:"id"`

	// UserID is the owning user. Never serialized.
	UserID int64 `json:"-" db:"user_id"`

	// Name is the display name of the category. Required.
	Name string `json:"name" db:"name"`

	// Description is free-form text describing the category.
	Description string `json:"description" db:"description"`

	// Creation is the timestamp when the category was created.
	Creation time.Time `json:"creation" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

func (c Category) EntityID() int64 { return c.ID }
func (c Category) OwnerID() int64  { return c.UserID }

// Task is a single unit of work, optionally with a due date.
type Task struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"-" db:"user_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// Completed marks the task as done.
	Completed bool `json:"completed" db:"completed"`

	// DueDate is the optional deadline for the task.
	DueDate *time.Time `json:"dueDate,omitempty" db:"due_date"`

	Creation  time.Time `json:"creation" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

func (t Task) EntityID() int64 { return t.ID }
func (t Task) OwnerID() int64  { return t.UserID }

// Note is a free-form text note.
type Note struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Creation  time.Time `json:"creation" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

func (n Note) EntityID() int64 { return n.ID }
func (n Note) OwnerID() int64  { return n.UserID }

// Habit is a recurring activity the user tracks.
type Habit struct {
	ID          int64  `json:"id" db:"id"`
	UserID      int64  `json:"-" db:"user_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`

	// Frequency describes how often the habit recurs (e.g. "DAILY").
	Frequency string `json:"frequency" db:"frequency"`

	// TargetValue is the per-period goal for quantified habits.
	TargetValue int `json:"targetValue" db:"target_value"`

	// Active indicates whether the habit is currently tracked.
	Active bool `json:"active" db:"active"`

	Creation  time.Time `json:"creation" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

func (h Habit) EntityID() int64 { return h.ID }
func (h Habit) OwnerID() int64  { return h.UserID }

// Relation describes a many-to-many association between two resource kinds,
// oriented from the parent kind toward the child kind.
type Relation struct {
	// JoinTable is the name of the association table.
	JoinTable string

	// ParentColumn references the parent resource's id in the join table.
	ParentColumn string

	// ChildColumn references the child resource's id in the join table.
	ChildColumn string
}

// relation join tables, keyed by their canonical (left, right) kind pair.
var relationTables = map[[2]Kind]Relation{
	{KindTask, KindCategory}:  {JoinTable: "task_categories", ParentColumn: "task_id", ChildColumn: "category_id"},
	{KindNote, KindCategory}:  {JoinTable: "note_categories", ParentColumn: "note_id", ChildColumn: "category_id"},
	{KindHabit, KindCategory}: {JoinTable: "habit_categories", ParentColumn: "habit_id", ChildColumn: "category_id"},
	{KindNote, KindTask}:      {JoinTable: "note_tasks", ParentColumn: "note_id", ChildColumn: "task_id"},
	{KindHabit, KindNote}:     {JoinTable: "habit_notes", ParentColumn: "habit_id", ChildColumn: "note_id"},
	{KindHabit, KindTask}:     {JoinTable: "habit_tasks", ParentColumn: "habit_id", ChildColumn: "task_id"},
}

// RelationBetween resolves the association between a parent and child kind,
// in either direction. The returned Relation is oriented parent→child.
func RelationBetween(parent, child Kind) (Relation, bool) {
	if rel, ok := relationTables[[2]Kind{parent, child}]; ok {
		return rel, true
	}
	if rel, ok := relationTables[[2]Kind{child, parent}]; ok {
		return Relation{
			JoinTable:    rel.JoinTable,
			ParentColumn: rel.ChildColumn,
			ChildColumn:  rel.ParentColumn,
		}, true
	}
	return Relation{}, false
}
