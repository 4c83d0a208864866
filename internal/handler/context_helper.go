package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-builder/internal/service"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/response"
)

type revisionSource interface {
	Revision() uint64
}

// readContext returns the request context with a revision tracker attached.
func readContext(c *gin.Context) (context.Context, *service.RevisionTracker) {
	return service.TrackRevision(c.Request.Context())
}

// mutationContext is readContext plus the revision named by If-Match, if
// any. Both `12` and `"12"` (optionally weak) are accepted; `*` means no
// precondition.
func mutationContext(c *gin.Context) (context.Context, *service.RevisionTracker, error) {
	ctx, tracker := readContext(c)
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return ctx, tracker, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	rev, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "If-Match must be a collection revision")
	}
	return service.WithExpectedRevision(ctx, rev), tracker, nil
}

// stampRevision sets the revision header from what the service call
// recorded, falling back to the current revision when nothing was recorded.
func stampRevision(c *gin.Context, tracker *service.RevisionTracker, fallback revisionSource) {
	if rev, ok := tracker.Revision(); ok {
		response.Revision(c, rev)
		return
	}
	if fallback != nil {
		response.Revision(c, fallback.Revision())
	}
}
