package logging

import "context"

type contextKey string

const (
	sessionIDKey   contextKey = "session_id"
	checklistIDKey contextKey = "checklist_id"
)

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithChecklistID adds a checklist ID to the context.
func WithChecklistID(ctx context.Context, checklistID string) context.Context {
	return context.WithValue(ctx, checklistIDKey, checklistID)
}

// GetSessionID retrieves the session ID from the context.
// Returns empty string if not present.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// GetChecklistID retrieves the checklist ID from the context.
// Returns empty string if not present.
func GetChecklistID(ctx context.Context) string {
	if id, ok := ctx.Value(checklistIDKey).(string); ok {
		return id
	}
	return ""
}
