// Package run owns a session's lifecycle: creation from a plan, response
// recording, back-navigation, auto-save, completion, and resume.
package run

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a session.
// ENUM(in_progress, completed, aborted).
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
)

// Result is the outcome recorded for a single plan item.
// ENUM(pass, fail, skip, na).
type Result string

const (
	ResultPass Result = "pass"
	ResultFail Result = "fail"
	ResultSkip Result = "skip"
	ResultNA   Result = "na"
)

// ParseResult normalizes operator input to the closed result set. Case
// variants and single-letter shorthand are accepted at the boundary.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "p":
		return ResultPass, nil
	case "fail", "f":
		return ResultFail, nil
	case "skip", "s":
		return ResultSkip, nil
	case "na", "n", "not_applicable", "not-applicable":
		return ResultNA, nil
	default:
		return "", fmt.Errorf("unknown result %q (expected pass, fail, skip, or na)", s)
	}
}

// Response records the operator's answer for one plan item. MatrixValues
// disambiguates matrix-expanded items in reports.
type Response struct {
	ItemID       string            `json:"item_id"`
	Result       Result            `json:"result"`
	Notes        string            `json:"notes,omitempty"`
	Evidence     []string          `json:"evidence,omitempty"`
	MatrixValues map[string]string `json:"matrix_values,omitempty"`
	AnsweredAt   time.Time         `json:"answered_at"`
}

// Session is the persisted record of one run against a plan. It is owned
// exclusively by the state machine; reporters only read it.
type Session struct {
	ID              string         `json:"id"`
	ChecklistID     string         `json:"checklist_id"`
	ChecklistDigest string         `json:"checklist_digest"`
	ChecklistPath   string         `json:"checklist_path"`
	Variables       map[string]any `json:"variables"`
	Status          Status         `json:"status"`
	PlanSize        int            `json:"plan_size"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CurrentIndex    int            `json:"current_index"`
	Responses       []Response     `json:"responses"`
}

// Terminal reports whether the session has reached a final state.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAborted
}

// Response returns the recorded response for an item id, if any.
func (s *Session) Response(itemID string) (Response, bool) {
	for _, r := range s.Responses {
		if r.ItemID == itemID {
			return r, true
		}
	}
	return Response{}, false
}

// Answered reports whether an item id has a recorded response.
func (s *Session) Answered(itemID string) bool {
	_, ok := s.Response(itemID)
	return ok
}

// Store persists sessions. The state machine assumes exclusive single-writer
// access per session id; concurrent writers are a documented misuse.
type Store interface {
	Save(sess *Session) error
}
