package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/ledger"
)

func (s *Server) handleListTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, filter.apply(sess.Snapshot().Transactions()))
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id := c.Param("id")
	for _, t := range sess.Snapshot().Transactions() {
		if t.ID == id {
			c.JSON(http.StatusOK, t)
			return
		}
	}
	s.respondError(c, sess, "", gateway.ErrNotFound)
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var t core.Transaction
	if err := bindJSON(c, &t); err != nil {
		s.respondError(c, sess, "", err)
		return
	}
	t = sanitizeTransaction(t)
	t.ID = ""

	saved, err := sess.AddTransaction(c.Request.Context(), t)
	if err != nil {
		s.respondError(c, sess, addFailedMessage(t.Kind), err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var t core.Transaction
	if err := bindJSON(c, &t); err != nil {
		s.respondError(c, sess, ledger.MsgUpdateFailed, err)
		return
	}
	t = sanitizeTransaction(t)
	t.ID = strings.TrimSpace(c.Param("id"))

	saved, err := sess.UpdateTransaction(c.Request.Context(), t)
	if err != nil {
		s.respondError(c, sess, ledger.MsgUpdateFailed, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if err := sess.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, sess, ledger.MsgDeleteFailed, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func addFailedMessage(kind core.Kind) string {
	if kind == core.KindIncome {
		return ledger.MsgAddIncomeFailed
	}
	return ledger.MsgAddExpenseFailed
}
