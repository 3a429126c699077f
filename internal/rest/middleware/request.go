package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
)

// RequestIDMiddleware tags every request with an ID for log correlation
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// OrganizationContextMiddleware pulls the caller's organization and user from
// the request headers into the context. The organization is the tenant
// isolation boundary; requests without it are rejected before reaching any
// handler. Authentication itself happens upstream at the gateway.
func OrganizationContextMiddleware(c *gin.Context) {
	orgID := c.GetHeader(types.HeaderOrganizationID)
	if orgID == "" {
		c.Error(ierr.NewError("missing organization header").
			WithHintf("The %s header is required", types.HeaderOrganizationID).
			Mark(ierr.ErrPermissionDenied))
		c.Abort()
		return
	}

	ctx := c.Request.Context()
	ctx = types.SetOrganizationID(ctx, orgID)
	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
