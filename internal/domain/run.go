package domain

import (
	"encoding/json"
	"time"
)

// Status values of a stored optimization run.
const (
	RunStatusPending = "pending"
	RunStatusSolved  = "solved"
	RunStatusNoRoute = "no_solution"
	RunStatusFailed  = "failed"
)

// OptimizationRun is the persisted record of a single optimization request.
type OptimizationRun struct {
	ID            string
	Mode          RouteMode
	Status        string
	Input         json.RawMessage
	Output        json.RawMessage
	SolutionFound bool
	ErrorLog      string
	Created       time.Time
	Updated       time.Time
}
