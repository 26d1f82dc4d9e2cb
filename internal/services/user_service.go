package services

import (
	"errors"
	"fmt"

	"github.com/croftbit/taskboard/internal/repository"
	"gorm.io/gorm"
)

var ErrReassignSelf = errors.New("cannot reassign tasks to the user being deleted")

// UserHasTasksError reports that a user cannot be deleted without a
// reassignment target. TaskCount is surfaced to the caller so a retry with
// reassign_to can be offered.
type UserHasTasksError struct {
	TaskCount int64
}

func (e *UserHasTasksError) Error() string {
	return fmt.Sprintf("user has %d assigned tasks; supply a reassignment target", e.TaskCount)
}

// PartialReassignError reports a bulk reassignment that stopped partway.
// Earlier tasks stay reassigned; the user was not deleted.
type PartialReassignError struct {
	Result *ReassignResult
	Err    error
}

func (e *PartialReassignError) Error() string {
	return fmt.Sprintf("reassigned %d tasks before failing on task %d: %v",
		len(e.Result.ReassignedTaskIDs), e.Result.FailedTaskID, e.Err)
}

func (e *PartialReassignError) Unwrap() error {
	return e.Err
}

// UserService owns user deletion and its two-step reassignment contract.
type UserService struct {
	userRepo    repository.UserRepository
	taskRepo    repository.TaskRepository
	taskService *TaskService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, taskRepo repository.TaskRepository, taskService *TaskService) *UserService {
	return &UserService{
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		taskService: taskService,
	}
}

// DeleteUser removes a user. If the user still owns live tasks the caller
// must name a reassignment target; without one the call fails with
// UserHasTasksError carrying the count, and nothing is changed.
func (s *UserService) DeleteUser(actor, userID uint64, reassignTo *uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	count, err := s.taskRepo.CountActiveByAssignee(userID)
	if err != nil {
		return fmt.Errorf("failed to count assigned tasks: %w", err)
	}

	if count > 0 {
		if reassignTo == nil {
			return &UserHasTasksError{TaskCount: count}
		}
		if *reassignTo == userID {
			return ErrReassignSelf
		}

		result, err := s.taskService.ReassignForUserDeletion(actor, userID, *reassignTo)
		if err != nil {
			if result != nil && len(result.ReassignedTaskIDs) > 0 {
				return &PartialReassignError{Result: result, Err: err}
			}
			return err
		}
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
