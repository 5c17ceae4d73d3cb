package session

import (
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/workflow"
)

// Change is a persisting operation on the draft.
type Change int

const (
	ChangeCreate Change = iota
	ChangeUpdate
	ChangeDeparture
	ChangeFinish
	ChangeWithdraw
)

func (c Change) String() string {
	switch c {
	case ChangeCreate:
		return "create"
	case ChangeUpdate:
		return "update"
	case ChangeDeparture:
		return "register_departure"
	case ChangeFinish:
		return "mark_finished"
	case ChangeWithdraw:
		return "mark_withdrawn"
	}
	return "unknown"
}

func (c Change) action() (workflow.Action, bool) {
	switch c {
	case ChangeDeparture:
		return workflow.ActionRegisterDeparture, true
	case ChangeFinish:
		return workflow.ActionMarkFinished, true
	case ChangeWithdraw:
		return workflow.ActionMarkWithdrawn, true
	}
	return "", false
}

// Transition is a change staged on a copy of the draft. Nothing in the
// session moves until Commit, which the caller only does once the backend
// accepted Payload.
type Transition struct {
	Change  Change
	OrderID int64
	Payload model.OrderPayload

	draft      Draft
	generation uint64
}

// Assign records the id the backend gave a created order.
func (t *Transition) Assign(id int64) {
	t.OrderID = id
	t.draft.ID = id
}

// Prepare stamps and builds the payload for change. A pending amount
// recompute is flushed first so the payload carries the current total.
func (s *Session) Prepare(change Change) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()
	d, memo := s.draft, s.memo

	if change != ChangeCreate && !d.Exists() {
		return Transition{}, ErrNoOrderLoaded
	}
	if action, ok := change.action(); ok && !workflow.Evaluate(d.Exists(), d.Status).Allows(action) {
		return Transition{}, ErrActionBlocked
	}

	now := s.clock.Now()
	today := now.Format(dateLayout)
	memoNow := func(slot *string) string {
		if *slot == "" {
			*slot = now.Format(clockLayout)
		}
		return *slot
	}

	switch change {
	case ChangeCreate:
		if d.IntakeDate == "" {
			d.IntakeDate = today
		}
		if t := memoNow(&memo.Intake); d.IntakeTime == "" {
			d.IntakeTime = t
		}
		if d.Status == "" {
			d.Status = s.opts.DefaultStatus
		}
	case ChangeDeparture:
		if d.DepartureDate == "" {
			d.DepartureDate = today
		}
		if t := memoNow(&memo.Departure); d.DepartureTime == "" {
			d.DepartureTime = t
		}
		d.Status = s.opts.DefaultStatus
	case ChangeFinish:
		d.Status = model.StatusFinished
	case ChangeWithdraw:
		d.WithdrawalDate = today
		d.WithdrawalTime = now.Format(clockLayout)
		d.Status = model.StatusWithdrawn
	}

	// The memo outlives a failed call so a retry stamps the same time.
	s.memo = memo

	return Transition{
		Change:     change,
		OrderID:    d.ID,
		Payload:    d.payload(memo),
		draft:      d,
		generation: s.generation,
	}, nil
}

// Commit applies what t stamped to the live draft. It reports false and
// leaves the draft alone when another order was loaded or the form was reset
// since Prepare.
func (s *Session) Commit(t Transition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.generation != s.generation {
		return false
	}
	d := &s.draft
	switch t.Change {
	case ChangeCreate:
		d.ID = t.draft.ID
		d.IntakeDate = t.draft.IntakeDate
		d.IntakeTime = t.draft.IntakeTime
		d.Status = t.draft.Status
	case ChangeDeparture:
		d.DepartureDate = t.draft.DepartureDate
		d.DepartureTime = t.draft.DepartureTime
		d.Status = t.draft.Status
	case ChangeFinish:
		d.Status = t.draft.Status
	case ChangeWithdraw:
		d.WithdrawalDate = t.draft.WithdrawalDate
		d.WithdrawalTime = t.draft.WithdrawalTime
		d.Status = t.draft.Status
	}
	return true
}
