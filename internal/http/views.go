package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"pennywise/internal/amqp"
	"pennywise/internal/cache"
	"pennywise/internal/log"
)

func viewPrefix(userID string) string {
	return "view:" + userID + ":"
}

// cachedView serves name from the view store, computing and storing it on a
// miss. Keys carry the session revision, so a view computed from older data
// is never served after a mutation. Store failures only cost a recompute.
func cachedView[T any](s *Server, c *gin.Context, revision uint64, name string, compute func() (T, error)) (T, error) {
	ctx := c.Request.Context()
	key := fmt.Sprintf("%sr%d:%s", viewPrefix(c.GetString(ctxUserKey)), revision, name)

	var v T
	hit, err := cache.GetJSON(ctx, s.views, key, &v)
	if err != nil {
		s.requestLogger(c).WarnContext(ctx, "View cache read failed", log.FieldError, err.Error(), "key", key)
	}
	if hit {
		return v, nil
	}

	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, s.views, key, v, s.viewTTL); err != nil {
		s.requestLogger(c).WarnContext(ctx, "View cache write failed", log.FieldError, err.Error(), "key", key)
	}
	return v, nil
}

func (s *Server) invalidateViews(c *gin.Context, userID string) {
	if err := s.views.DeletePrefix(c.Request.Context(), viewPrefix(userID)); err != nil {
		s.requestLogger(c).WarnContext(c.Request.Context(), "View cache invalidation failed", log.FieldError, err.Error())
	}
}

// ViewInvalidator drops a user's cached dashboard views whenever a ledger
// event for that user is published. It is meant to sit next to the AMQP
// client in a ledger.Publishers list.
type ViewInvalidator struct {
	store   cache.Store
	timeout time.Duration
	logger  *log.Logger
}

func NewViewInvalidator(store cache.Store, logger *log.Logger) *ViewInvalidator {
	if logger == nil {
		logger = log.Discard()
	}
	return &ViewInvalidator{store: store, timeout: 2 * time.Second, logger: logger.WithComponent(log.ComponentCache)}
}

func (v *ViewInvalidator) PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if err := v.store.DeletePrefix(ctx, viewPrefix(ev.UserID)); err != nil {
		return fmt.Errorf("invalidate views of %s: %w", ev.UserID, err)
	}
	v.logger.DebugContext(ctx, "Views invalidated",
		log.FieldUserID, ev.UserID,
		log.FieldEventType, ev.Type)
	return nil
}
