package models

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Task belongs to an organization only through its project.
type Task struct {
	BaseModel

	ProjectID  string     `gorm:"type:uuid;not null;index" json:"project_id"`
	Title      string     `gorm:"not null" json:"title"`
	Status     TaskStatus `gorm:"type:varchar(16);not null;default:TODO;index" json:"status"`
	AssigneeID *string    `gorm:"type:uuid;index" json:"assignee_id"`
	DueDate    *time.Time `json:"due_date"`
}
