package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
)

const msgGoalsFailed = "Failed to update savings goals"

// goalView adds the derived progress figures to a goal.
type goalView struct {
	core.SavingsGoal
	Progress float64 `json:"progress"`
	Reached  bool    `json:"reached"`
}

func newGoalView(g core.SavingsGoal) goalView {
	return goalView{SavingsGoal: g, Progress: g.Progress(), Reached: g.Reached()}
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) goalsAvailable(c *gin.Context) bool {
	if s.goals == nil {
		abortError(c, http.StatusNotImplemented, "savings goals are not configured")
		return false
	}
	return true
}

func (s *Server) handleListGoals(c *gin.Context) {
	if !s.goalsAvailable(c) {
		return
	}
	goals, err := s.goals.List(c.Request.Context(), c.GetString(ctxUserKey))
	if err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	out := make([]goalView, len(goals))
	for i, g := range goals {
		out[i] = newGoalView(g)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateGoal(c *gin.Context) {
	if !s.goalsAvailable(c) {
		return
	}
	var g core.SavingsGoal
	if err := bindJSON(c, &g); err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	saved, err := s.goals.Create(c.Request.Context(), c.GetString(ctxUserKey), g)
	if err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	c.JSON(http.StatusCreated, newGoalView(saved))
}

func (s *Server) handleUpdateGoal(c *gin.Context) {
	if !s.goalsAvailable(c) {
		return
	}
	var g core.SavingsGoal
	if err := bindJSON(c, &g); err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	g.ID = c.Param("id")
	g.Name = sanitizeInput(g.Name)
	saved, err := s.goals.Update(c.Request.Context(), c.GetString(ctxUserKey), g)
	if err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	c.JSON(http.StatusOK, newGoalView(saved))
}

func (s *Server) handleContributeGoal(c *gin.Context) {
	if !s.goalsAvailable(c) {
		return
	}
	var req contributionRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	saved, err := s.goals.Contribute(c.Request.Context(), c.GetString(ctxUserKey), c.Param("id"), req.Amount)
	if err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	c.JSON(http.StatusOK, newGoalView(saved))
}

func (s *Server) handleDeleteGoal(c *gin.Context) {
	if !s.goalsAvailable(c) {
		return
	}
	if err := s.goals.Delete(c.Request.Context(), c.GetString(ctxUserKey), c.Param("id")); err != nil {
		s.respondError(c, nil, msgGoalsFailed, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCategories(c *gin.Context) {
	kind, err := kindParam(c.Query("type"))
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	if kind == "" {
		c.JSON(http.StatusOK, s.catalog)
		return
	}
	c.JSON(http.StatusOK, s.catalog.For(kind))
}
