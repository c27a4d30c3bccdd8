package run

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
	"github.com/colonyops/tick/internal/core/logging"
	"github.com/colonyops/tick/internal/core/plan"
	"github.com/colonyops/tick/internal/core/vars"
)

// Machine drives one session through its plan. Every mutation persists the
// session before returning, so an interrupted process loses at most the
// in-flight response.
type Machine struct {
	store Store
	plan  []plan.Runnable
	sess  *Session
	log   zerolog.Logger
}

// NewID allocates a new session id: 32 lowercase hex characters.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Create builds the plan from the checklist and bindings, allocates a new
// in-progress session, and persists it immediately.
func Create(store Store, cl *checklist.Checklist, bindings expr.Bindings, checklistPath string) (*Machine, error) {
	digest, err := checklist.Digest(cl)
	if err != nil {
		return nil, err
	}

	runnables, err := plan.Build(cl, bindings)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:              NewID(),
		ChecklistID:     cl.ID(),
		ChecklistDigest: digest,
		ChecklistPath:   checklistPath,
		Variables:       map[string]any(bindings),
		Status:          StatusInProgress,
		PlanSize:        len(runnables),
		StartedAt:       time.Now().UTC(),
	}

	m := &Machine{
		store: store,
		plan:  runnables,
		sess:  sess,
		log:   logging.Component("run"),
	}
	if err := m.persist(); err != nil {
		return nil, err
	}

	m.log.Info().
		Str("session_id", sess.ID).
		Str("checklist_id", sess.ChecklistID).
		Int("total_items", len(runnables)).
		Msg("session started")
	return m, nil
}

// Resume reconstructs a machine from a persisted session. The plan is
// recomputed from the checklist and the session's stored variables; every
// stored response id must still exist in the recomputed plan, otherwise the
// resume fails with a PlanDriftError and the stored session is untouched.
func Resume(store Store, cl *checklist.Checklist, sess *Session) (*Machine, error) {
	if sess.Terminal() {
		return nil, fmt.Errorf("resume session %s (status %s): %w", sess.ID, sess.Status, ErrSessionFinished)
	}

	digest, err := checklist.Digest(cl)
	if err != nil {
		return nil, err
	}
	if sess.ChecklistDigest != "" && sess.ChecklistDigest != digest {
		return nil, &PlanDriftError{
			SessionID: sess.ID,
			Detail:    fmt.Sprintf("checklist digest changed (stored %s, computed %s)", sess.ChecklistDigest, digest),
		}
	}

	bindings, err := vars.Resolve(cl.Variables, sess.Variables)
	if err != nil {
		return nil, fmt.Errorf("rebind session variables: %w", err)
	}

	runnables, err := plan.Build(cl, bindings)
	if err != nil {
		return nil, err
	}

	for _, resp := range sess.Responses {
		if plan.Find(runnables, resp.ItemID) == -1 {
			return nil, &PlanDriftError{
				SessionID: sess.ID,
				Detail:    fmt.Sprintf("stored response for %q has no matching plan item", resp.ItemID),
			}
		}
	}

	m := &Machine{
		store: store,
		plan:  runnables,
		sess:  sess,
		log:   logging.Component("run"),
	}
	m.sess.CurrentIndex = m.nextUnanswered()
	m.sess.PlanSize = len(runnables)

	m.log.Info().
		Str("session_id", sess.ID).
		Int("completed", len(sess.Responses)).
		Int("total", len(runnables)).
		Msg("session resumed")
	return m, nil
}

// Session returns the underlying session record.
func (m *Machine) Session() *Session { return m.sess }

// Plan returns the ordered runnables this session executes.
func (m *Machine) Plan() []plan.Runnable { return m.plan }

// Current returns the runnable at the cursor, or nil when past the end.
func (m *Machine) Current() *plan.Runnable {
	if m.sess.CurrentIndex >= len(m.plan) {
		return nil
	}
	return &m.plan[m.sess.CurrentIndex]
}

// Done reports whether every plan item has a response.
func (m *Machine) Done() bool {
	return m.nextUnanswered() >= len(m.plan)
}

// Progress returns answered and total item counts.
func (m *Machine) Progress() (answered, total int) {
	for _, r := range m.plan {
		if m.sess.Answered(r.ItemID) {
			answered++
		}
	}
	return answered, len(m.plan)
}

// Record stores the response for an item id, overwriting any prior response
// for the same id, then advances the cursor to the next unanswered plan
// position and persists.
func (m *Machine) Record(itemID string, result Result, notes string, evidence []string) error {
	idx := plan.Find(m.plan, itemID)
	if idx == -1 {
		return &NavigationError{Op: "record response", ItemID: itemID}
	}

	resp := Response{
		ItemID:       itemID,
		Result:       result,
		Notes:        notes,
		Evidence:     evidence,
		MatrixValues: m.plan[idx].MatrixValues,
		AnsweredAt:   time.Now().UTC(),
	}

	replaced := false
	for i, existing := range m.sess.Responses {
		if existing.ItemID == itemID {
			m.sess.Responses[i] = resp
			replaced = true
			break
		}
	}
	if !replaced {
		m.sess.Responses = append(m.sess.Responses, resp)
	}

	m.sess.CurrentIndex = m.nextUnanswered()
	if err := m.persist(); err != nil {
		return err
	}

	m.log.Debug().
		Str("item_id", itemID).
		Str("result", string(result)).
		Msg("response recorded")
	return nil
}

// Back moves the cursor to the previous plan position. The response already
// recorded there is kept, so it stays visible and editable on redisplay.
func (m *Machine) Back() error {
	if m.sess.CurrentIndex == 0 {
		return &NavigationError{Op: "go back", Index: 0}
	}
	m.sess.CurrentIndex--
	if err := m.persist(); err != nil {
		return err
	}

	m.log.Debug().Int("current_index", m.sess.CurrentIndex).Msg("went back")
	return nil
}

// Finalize transitions the session to a terminal state. Completing requires
// every plan item to have a response; aborting does not.
func (m *Machine) Finalize(outcome Status) error {
	switch outcome {
	case StatusCompleted:
		if answered, total := m.Progress(); answered < total {
			return fmt.Errorf("cannot complete session: %d of %d items unanswered", total-answered, total)
		}
	case StatusAborted:
	default:
		return fmt.Errorf("invalid final status %q", outcome)
	}

	now := time.Now().UTC()
	m.sess.Status = outcome
	m.sess.CompletedAt = &now
	if err := m.persist(); err != nil {
		return err
	}

	m.log.Info().
		Str("session_id", m.sess.ID).
		Str("status", string(outcome)).
		Int("responses", len(m.sess.Responses)).
		Msg("session finalized")
	return nil
}

// nextUnanswered returns the first plan position without a response, or
// len(plan) when everything is answered. Scanning from the start keeps the
// cursor correct after back-navigation edits.
func (m *Machine) nextUnanswered() int {
	for i, r := range m.plan {
		if !m.sess.Answered(r.ItemID) {
			return i
		}
	}
	return len(m.plan)
}

func (m *Machine) persist() error {
	if err := m.store.Save(m.sess); err != nil {
		return fmt.Errorf("save session %s: %w", m.sess.ID, err)
	}
	return nil
}
