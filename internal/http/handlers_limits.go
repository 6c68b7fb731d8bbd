package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// limitsFor keeps the limits of month; an empty month keeps all.
func limitsFor(all []core.ExpenseLimit, month string) []core.ExpenseLimit {
	out := make([]core.ExpenseLimit, 0, len(all))
	for _, l := range all {
		if month == "" || l.Month == month {
			out = append(out, l)
		}
	}
	return out
}

func (s *Server) handleListLimits(c *gin.Context) {
	month := strings.TrimSpace(c.Query("month"))
	if month != "" && !core.IsValidMonth(month) {
		s.respondError(c, nil, "", fieldError("month", "Month must be YYYY-MM"))
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, limitsFor(sess.Snapshot().ExpenseLimits, month))
}

// handleReplaceLimits makes the caller's limits, across all months, equal to
// the request body.
func (s *Server) handleReplaceLimits(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var limits []core.ExpenseLimit
	if err := bindJSON(c, &limits); err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	saved, err := sess.ReplaceLimits(c.Request.Context(), sanitizeLimits(limits))
	if err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// handleSetMonthLimits replaces one month's limits; other months are kept.
func (s *Server) handleSetMonthLimits(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var limits []core.ExpenseLimit
	if err := bindJSON(c, &limits); err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	month := c.Param("month")
	saved, err := sess.SetMonthLimits(c.Request.Context(), month, sanitizeLimits(limits))
	if err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	c.JSON(http.StatusOK, limitsFor(saved, month))
}

func (s *Server) handleUpsertLimit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var l core.ExpenseLimit
	if err := bindJSON(c, &l); err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	l = sanitizeLimits([]core.ExpenseLimit{l})[0]
	saved, err := sess.UpsertLimit(c.Request.Context(), l)
	if err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	c.JSON(http.StatusOK, limitsFor(saved, l.Month))
}

func (s *Server) handleDeleteLimit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	month := c.Param("month")
	saved, err := sess.DeleteLimit(c.Request.Context(), sanitizeInput(c.Param("category")), month)
	if err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	c.JSON(http.StatusOK, limitsFor(saved, month))
}

func (s *Server) handleCopyPreviousLimits(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	month := c.Param("month")
	saved, err := sess.CopyPreviousMonthLimits(c.Request.Context(), month)
	if err != nil {
		s.respondError(c, sess, ledger.MsgLimitsFailed, err)
		return
	}
	c.JSON(http.StatusOK, limitsFor(saved, month))
}
