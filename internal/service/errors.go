package service

import (
	"errors"
	"fmt"

	"github.com/nurpe/repairdesk/internal/session"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	// ErrListNotRefreshed marks a change the backend accepted whose follow-up
	// snapshot reload failed.
	ErrListNotRefreshed = errors.New("list not reloaded")
	ErrNotReopenable    = fmt.Errorf("%w: only finished or withdrawn orders can be reopened", ErrValidation)

	ErrNoOrderLoaded = session.ErrNoOrderLoaded
	ErrActionBlocked = session.ErrActionBlocked
)
