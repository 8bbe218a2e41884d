package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/validation"
)

// TaskInput is the payload for creating a task. The owner is always the caller.
type TaskInput struct {
	Description string `json:"description" validate:"description"`
	Completed   bool   `json:"completed"`
}

// TaskPatch is a partial task update. Nil fields are left as they are.
type TaskPatch struct {
	Description *string `json:"description" validate:"omitnil,description"`
	Completed   *bool   `json:"completed"`
}

func errDescriptionTaken() error {
	return validation.NewError("description", "is already used by another task")
}

type TaskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*model.Task, error) {
	in.Description = validation.Clean(in.Description)
	err := validation.Struct(&in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          uuid.NewString(),
		Description: in.Description,
		Completed:   in.Completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tasks.Create(ctx, task)
	if errors.Is(err, repository.ErrDuplicateDescription) {
		return nil, errDescriptionTaken()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, opts model.TaskListOptions) ([]*model.Task, error) {
	return s.tasks.List(ctx, ownerID, opts)
}

func (s *TaskService) ByID(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	return s.tasks.ByID(ctx, ownerID, taskID)
}

// Update applies patch to the owner's task and persists it.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*model.Task, error) {
	if patch.Description != nil {
		*patch.Description = validation.Clean(*patch.Description)
	}
	err := validation.Struct(&patch)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.ByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	err = s.tasks.Update(ctx, task)
	if errors.Is(err, repository.ErrDuplicateDescription) {
		return nil, errDescriptionTaken()
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	return s.tasks.Delete(ctx, ownerID, taskID)
}
