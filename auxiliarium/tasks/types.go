package tasks

import (
	"time"

	"taskledger/taskledger"
)

type Task struct {
	ProjectID   uint64             `json:"project_id"`
	ID          uint64             `json:"id"` // scoped to ProjectID
	Description string             `json:"description"`
	AssignedTo  taskledger.Account `json:"assigned_to"`
	Deadline    time.Time          `json:"deadline"` // descriptive only, never enforced
	Reward      taskledger.Amount  `json:"reward"`
	Completed   bool               `json:"completed"`
	Verified    bool               `json:"verified"`
	Rewarded    bool               `json:"rewarded"`
}

// View is the shape returned by getTask.
type View struct {
	Description string             `json:"description"`
	AssignedTo  taskledger.Account `json:"assigned_to"`
	Completed   bool               `json:"completed"`
	Verified    bool               `json:"verified"`
	Deadline    time.Time          `json:"deadline"`
	Reward      taskledger.Amount  `json:"reward"`
	Rewarded    bool               `json:"rewarded"`
}

//Kind650104 STATUS:DRAFT
//Used for creating a Task within a Project
type Kind650104 struct {
	Project     uint64 `json:"project"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	Deadline    int64  `json:"deadline"` // unix seconds
	Reward      uint64 `json:"reward"`
}

//Kind650106 STATUS:DRAFT
//Used by the assignee to mark a Task completed
type Kind650106 struct {
	Project uint64 `json:"project"`
	Task    uint64 `json:"task"`
}
