// Package workflow derives which order lifecycle actions are available.
package workflow

import (
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/textnorm"
)

type Action string

const (
	ActionRegisterDeparture Action = "register_departure"
	ActionMarkFinished      Action = "mark_finished"
	ActionMarkWithdrawn     Action = "mark_withdrawn"
)

type Actions struct {
	RegisterDeparture bool `json:"register_departure"`
	MarkFinished      bool `json:"mark_finished"`
	MarkWithdrawn     bool `json:"mark_withdrawn"`
}

func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionRegisterDeparture:
		return a.RegisterDeparture
	case ActionMarkFinished:
		return a.MarkFinished
	case ActionMarkWithdrawn:
		return a.MarkWithdrawn
	}
	return false
}

var closedStatuses = map[string]Actions{
	model.StatusFinished:  {MarkWithdrawn: true},
	model.StatusWithdrawn: {},
	model.StatusSuspended: {},
}

var inProgressActions = Actions{RegisterDeparture: true, MarkFinished: true}

// Evaluate is a pure function of whether an order is loaded and its status.
// Unknown statuses block everything.
func Evaluate(orderExists bool, status string) Actions {
	if !orderExists {
		return Actions{}
	}
	st := textnorm.Status(status)
	if actions, ok := closedStatuses[st]; ok {
		return actions
	}
	if model.IsInProgress(st) {
		return inProgressActions
	}
	return Actions{}
}

// CanReopen reports whether an order in this status may be reopened.
func CanReopen(status string) bool {
	st := textnorm.Status(status)
	return st == model.StatusFinished || st == model.StatusWithdrawn
}
