package projects

import (
	"taskledger/taskledger"
)

// Project is a team of Participants working through a list of Tasks. A Project value is never modified in
// place once it has been published, every mutator below copies whatever it changes.
type Project struct {
	ID         uint64               `json:"id"`
	Name       string               `json:"name"`
	Members    []taskledger.Account `json:"members"`
	TaskIDs    []uint64             `json:"task_ids"`
	Completed  bool                 `json:"completed"`
	TeamSize   int                  `json:"team_size"`
	TaskCount  int                  `json:"task_count"`
	NextTaskID uint64               `json:"next_task_id"`

	memberIndex map[taskledger.Account]struct{}
}

// Info is the summary returned by getProjectInfo.
type Info struct {
	Name      string `json:"name"`
	TeamSize  int    `json:"team_size"`
	TaskCount int    `json:"task_count"`
	Completed bool   `json:"completed"`
}

//Kind650100 STATUS:DRAFT
//Used for creating a Project
type Kind650100 struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

//Kind650102 STATUS:DRAFT
//Used for adding a Participant to a Project team
type Kind650102 struct {
	Project uint64 `json:"project"`
	Member  string `json:"member"`
}
