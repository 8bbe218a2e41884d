package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskforce/taskmanager/internal/db"
	"github.com/taskforce/taskmanager/internal/model"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrDuplicateDescription = errors.New("task description already exists")
)

const taskColumns = `id, description, completed, owner_id, created_at, updated_at`

// sortColumns whitelists the columns a task list may be ordered by.
var sortColumns = map[string]string{
	model.TaskSortCreatedAt:   "created_at",
	model.TaskSortUpdatedAt:   "updated_at",
	model.TaskSortDescription: "description",
	model.TaskSortCompleted:   "completed",
}

// TaskRepository reads and writes tasks. Every lookup by id is scoped to the
// owner, so another user's task is indistinguishable from a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ByID(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	List(ctx context.Context, ownerID string, opts model.TaskListOptions) ([]*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

type taskRepository struct {
	conn sqlx.ExtContext
}

func NewTaskRepository(conn sqlx.ExtContext) TaskRepository {
	return &taskRepository{conn: conn}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.conn.ExecContext(ctx, query,
		task.ID,
		task.Description,
		task.Completed,
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateDescription
	}
	return err
}

func (r *taskRepository) ByID(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task := &model.Task{}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`

	err := sqlx.GetContext(ctx, r.conn, task, query, taskID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) List(ctx context.Context, ownerID string, opts model.TaskListOptions) ([]*model.Task, error) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if opts.Completed != nil {
		args = append(args, *opts.Completed)
		fmt.Fprintf(&b, ` AND completed = $%d`, len(args))
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	fmt.Fprintf(&b, ` ORDER BY %s %s, id ASC`, column, direction)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if opts.Skip > 0 {
		if opts.Limit <= 0 {
			b.WriteString(` LIMIT ` + r.unlimited())
		}
		args = append(args, opts.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}

	tasks := []*model.Task{}
	err := sqlx.SelectContext(ctx, r.conn, &tasks, b.String(), args...)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// unlimited is the LIMIT value meaning "no limit"; SQLite needs one before OFFSET.
func (r *taskRepository) unlimited() string {
	if r.conn.DriverName() == db.DriverPostgres {
		return "ALL"
	}
	return "-1"
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()
	query := `UPDATE tasks SET description = $1, completed = $2, updated_at = $3 WHERE id = $4 AND owner_id = $5`

	result, err := r.conn.ExecContext(ctx, query,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateDescription
	}
	if err != nil {
		return err
	}

	return expectRow(result, ErrTaskNotFound)
}

// Delete removes the owner's task and returns it as it was.
func (r *taskRepository) Delete(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task := &model.Task{}
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING ` + taskColumns

	err := sqlx.GetContext(ctx, r.conn, task, query, taskID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
