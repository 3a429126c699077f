package types

import (
	"context"
	"fmt"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID      ContextKey = "ctx_request_id"
	CtxOrganizationID ContextKey = "ctx_organization_id"
	CtxUserID         ContextKey = "ctx_user_id"
	CtxDBTransaction  ContextKey = "ctx_db_transaction"

	// Default values
	DefaultOrganizationID = "00000000-0000-0000-0000-000000000000"
	DefaultUserID         = "00000000-0000-0000-0000-000000000000"
)

// Header names used by the request middleware
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

// GetOrganizationID returns the caller's organization ID. The organization is
// the multi-tenant isolation boundary: every query is scoped by it.
func GetOrganizationID(ctx context.Context) string {
	if orgID, ok := ctx.Value(CtxOrganizationID).(string); ok {
		return orgID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetOrganizationID sets the organization ID in the context
func SetOrganizationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, CtxOrganizationID, orgID)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// ValidateOrganizationContext validates that the required organization context is present
func ValidateOrganizationContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context is nil")
	}

	if GetOrganizationID(ctx) == "" {
		return fmt.Errorf("no organization context found in context")
	}

	return nil
}
