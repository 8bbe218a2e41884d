package model

import "time"

type Task struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Completed   bool      `db:"completed" json:"completed"`
	OwnerID     string    `db:"owner_id" json:"owner"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	TaskSortCreatedAt   = "created_at"
	TaskSortUpdatedAt   = "updated_at"
	TaskSortDescription = "description"
	TaskSortCompleted   = "completed"
)

// TaskListOptions narrows and orders an owner's task list.
// Zero Limit and Skip mean no limit and no offset.
type TaskListOptions struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string
	SortDesc  bool
}
