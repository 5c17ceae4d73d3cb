package model

import (
	"strings"

	"github.com/nurpe/repairdesk/internal/textnorm"
)

const (
	StatusRepairing = "EN REPARACION"
	StatusFinished  = "TERMINADA"
	StatusWithdrawn = "RETIRADA"
	StatusSuspended = "SUSPENDIDA"

	inProgressPrefix = "EN "
)

// KnownInProgress lists the in-progress statuses the shop uses today. It only
// drives display grouping; IsInProgress is the structural test.
var KnownInProgress = []string{
	"EN REPARACION",
	"EN SOS",
	"EN WERTECH",
	"EN EKON",
	"EN AIR",
	"EN SERVIPRINT",
	"EN NICO GORI",
}

type StatusGroup string

const (
	GroupInProgress StatusGroup = "EN CURSO"
	GroupFinished   StatusGroup = "TERMINADA"
	GroupWithdrawn  StatusGroup = "RETIRADA"
	GroupSuspended  StatusGroup = "SUSPENDIDA"
	GroupOther      StatusGroup = "OTRO"
)

// IsInProgress expects a normalized status.
func IsInProgress(normalized string) bool {
	return strings.HasPrefix(normalized, inProgressPrefix)
}

func GroupOf(status string) StatusGroup {
	st := textnorm.Status(status)
	switch st {
	case StatusFinished:
		return GroupFinished
	case StatusWithdrawn:
		return GroupWithdrawn
	case StatusSuspended:
		return GroupSuspended
	}
	for _, known := range KnownInProgress {
		if st == known {
			return GroupInProgress
		}
	}
	return GroupOther
}
