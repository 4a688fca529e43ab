package models

import (
	"fmt"
	"strings"
)

// Status is the position of a video in the metadata workflow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuggested Status = "suggested"
	StatusApproved  Status = "approved"
	StatusApplied   Status = "applied"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusSuggested, StatusApproved, StatusApplied}

// transitions is the lifecycle. Every state but pending may be reset to
// pending: reject and regenerate do it for unapplied videos, a refresh of an
// approved or applied video does it before drafting again.
var transitions = map[Status][]Status{
	StatusPending:   {StatusSuggested},
	StatusSuggested: {StatusSuggested, StatusApproved, StatusPending},
	StatusApproved:  {StatusApplied, StatusPending},
	StatusApplied:   {StatusPending},
}

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown video status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuggested, StatusApproved, StatusApplied:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf lists, in lifecycle order, the statuses that may move to to.
// The result is the allowed set handed to conditional status updates.
func SourcesOf(to Status) []Status {
	var from []Status
	for _, s := range AllStatuses {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Priority selects which pending videos a generation batch picks first.
type Priority string

const (
	// PriorityRecent orders by publish time, newest first.
	PriorityRecent Priority = "recent"
	// PriorityOldest orders by publish time, oldest first.
	PriorityOldest Priority = "oldest"
	// PriorityLinked puts videos linked to an AI-EWG episode first, then newest.
	PriorityLinked Priority = "linked"
)

// ParsePriority maps s to a Priority. Unknown or empty values fall back to
// PriorityRecent.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityOldest, PriorityLinked:
		return p
	default:
		return PriorityRecent
	}
}

// OrderBy returns the SQL ORDER BY expression for p. Missing publish dates
// always sort last.
func (p Priority) OrderBy() string {
	switch p {
	case PriorityOldest:
		return "published_at ASC NULLS LAST, video_id"
	case PriorityLinked:
		return "(episode_id IS NOT NULL) DESC, published_at DESC NULLS LAST, video_id"
	default:
		return "published_at DESC NULLS LAST, video_id"
	}
}
