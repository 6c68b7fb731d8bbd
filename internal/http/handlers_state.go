package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

func (s *Server) handleGetState(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// handleReload refetches everything from the store. A failed reload keeps the
// previous state and reports the load banner.
func (s *Server) handleReload(c *gin.Context) {
	userID := c.GetString(ctxUserKey)
	sess, err := s.sessions.Reload(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, sess, ledger.MsgLoadFailed, err)
		return
	}
	s.invalidateViews(c, userID)
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDismissError(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.DismissError()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetBalances(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot().Balances)
}

func (s *Server) handleSetBalances(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var b core.AccountBalances
	if err := bindJSON(c, &b); err != nil {
		s.respondError(c, sess, ledger.MsgBalancesFailed, err)
		return
	}
	saved, err := sess.SetBalances(c.Request.Context(), b)
	if err != nil {
		s.respondError(c, sess, ledger.MsgBalancesFailed, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
