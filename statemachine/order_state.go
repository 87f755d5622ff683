package statemachine

import (
	"errors"
	"strings"

	"tow-dispatch-api/models"
)

// ActorAdmin is the only actor that changes status.
const ActorAdmin = "admin"

// Initial is the status every new order starts in.
const Initial = models.StatusInProgress

var ErrNotPermitted = errors.New("transition not permitted")

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// validTransitions: the admin may move an order between any two states,
// including back out of done/cancelled. Nobody else changes status and
// nothing changes it automatically.
var validTransitions = func() []Transition {
	var ts []Transition
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			if from != to {
				ts = append(ts, Transition{From: from, To: to, Actor: ActorAdmin})
			}
		}
	}
	return ts
}()

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if actor may move an order from one state to another.
// Re-applying the current status is a no-op the admin is always allowed.
func CanTransition(from, to models.OrderStatus, actor string) error {
	if actor == ActorAdmin && from == to && to.Valid() {
		return nil
	}
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.Join(ErrNotPermitted, errors.New(
		"invalid transition: "+string(from)+" -> "+string(to)+
			" is not allowed for actor '"+actor+"'. "+
			"Valid transitions from "+string(from)+" are: "+describeValidFrom(from)))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
