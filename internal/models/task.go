package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TaskType string

const (
	TaskTypeDelivery TaskType = "delivery"
	TaskTypePickup   TaskType = "pickup"
)

func (t TaskType) Valid() bool {
	return t == TaskTypeDelivery || t == TaskTypePickup
}

// TaskStatus is a free enum: any status may follow any other.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusAssigned,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

var TaskTypes = []TaskType{TaskTypeDelivery, TaskTypePickup}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label turns an enum value such as "in_progress" into "In Progress".
func Label(value string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(value, "_", " "))
}

func (s TaskStatus) Label() string { return Label(string(s)) }

func (t TaskType) Label() string { return Label(string(t)) }

const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD date string. Empty input is allowed.
func ParseDate(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD: %q", value)
	}
	return t.Format(DateLayout), nil
}

type Task struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	ReferenceBL    string     `json:"reference_bl"`
	Type           TaskType   `json:"type"`
	ClientID       int64      `json:"client_id"`
	ClientName     string     `json:"client_name,omitempty"`
	CourierID      *int64     `json:"courier_id"`
	CourierName    string     `json:"courier_name,omitempty"`
	Address        string     `json:"address"`
	ScheduledDate  string     `json:"scheduled_date,omitempty"`
	Status         TaskStatus `json:"status"`
	Notes          string     `json:"notes"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type TaskFilter struct {
	OrganizationID int64
	Status         TaskStatus
	Type           TaskType
	CourierID      *int64
	ClientID       *int64
	Query          string
	ScheduledFrom  string
	ScheduledTo    string
	Limit          int
	Offset         int
}

type TaskEvent struct {
	ID          int64      `json:"id"`
	TaskID      int64      `json:"task_id"`
	FromStatus  TaskStatus `json:"from_status,omitempty"`
	ToStatus    TaskStatus `json:"to_status"`
	ActorUserID *int64     `json:"actor_user_id"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TaskPhoto struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	StorageKey  string    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeHuman   string    `json:"size_human,omitempty"`
	UploadedBy  *int64    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
