package domain

import (
	"fmt"
	"strings"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// transitions lists the legal status changes; active and rejected are terminal
var transitions = map[model.DomainStatus][]model.DomainStatus{
	model.DomainStatusPending: {model.DomainStatusActive, model.DomainStatusRejected},
}

// ParseStatus validates a status name
func ParseStatus(s string) (model.DomainStatus, error) {
	switch st := model.DomainStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case model.DomainStatusPending, model.DomainStatusActive, model.DomainStatusRejected:
		return st, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("invalid domain status: %q", s))
	}
}

// CanTransition reports whether from may move to to
func CanTransition(from, to model.DomainStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition guards a status change. It returns false without error
// when from equals to, and a conflict error for any illegal move.
func CheckTransition(from, to model.DomainStatus) (bool, error) {
	if from == to {
		return false, nil
	}
	if !CanTransition(from, to) {
		return false, apperr.Conflict(fmt.Sprintf("cannot change domain status from %s to %s", from, to))
	}
	return true, nil
}
