package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	Archived  bool      `json:"archived"`
}

type Client struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ContactEmail string   `json:"contactEmail,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	ManagerIDs   []string `json:"managerIds,omitempty"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Archived  bool      `json:"archived"`
}

type ProjectStatus string

const (
	ProjectActive ProjectStatus = "active"
	ProjectPaused ProjectStatus = "paused"
	ProjectClosed ProjectStatus = "closed"
)

type Project struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"clientId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	MemberIDs   []string      `json:"memberIds,omitempty"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Archived  bool      `json:"archived"`
}

type TaskStatus string

const (
	TaskTodo    TaskStatus = "todo"
	TaskDoing   TaskStatus = "doing"
	TaskBlocked TaskStatus = "blocked"
	TaskDone    TaskStatus = "done"
)

type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`

	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    bool       `json:"priority"`
	Due         *string    `json:"due,omitempty"` // YYYY-MM-DD

	OwnerID     string   `json:"ownerId"`
	AssigneeIDs []string `json:"assigneeIds,omitempty"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Archived  bool      `json:"archived"`
}

// IsAssigned reports whether userID is one of the task's assignees.
func (t Task) IsAssigned(userID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type TimeLog struct {
	ID       string    `json:"id"`
	TaskID   string    `json:"taskId"`
	UserID   string    `json:"userId"`
	Minutes  int       `json:"minutes"`
	Note     string    `json:"note,omitempty"`
	LoggedAt time.Time `json:"loggedAt"`
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	ActorID  string    `json:"actorId"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
