package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts session_id and checklist_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if sessionID := GetSessionID(ctx); sessionID != "" {
		e.Str("session_id", sessionID)
	}

	if checklistID := GetChecklistID(ctx); checklistID != "" {
		e.Str("checklist_id", checklistID)
	}
}
