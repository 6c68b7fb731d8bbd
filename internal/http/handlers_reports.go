package http

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/insights"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
)

// insightsResponse pairs the suggestions with the month they describe.
type insightsResponse struct {
	Month       string                `json:"month"`
	Suggestions []insights.Suggestion `json:"suggestions"`
}

type trendsResponse struct {
	Year   int               `json:"year"`
	Type   core.Kind         `json:"type,omitempty"`
	Points []core.TrendPoint `json:"points"`
}

// serveView loads the session, then answers with the cached or freshly
// computed view named name.
func serveView[T any](s *Server, c *gin.Context, name string, compute func(st ledger.State) T) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	st := sess.Snapshot()
	v, err := cachedView(s, c, st.Revision, name, func() (T, error) {
		return compute(st), nil
	})
	if err != nil {
		s.respondError(c, sess, ledger.MsgLoadFailed, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleDailySummary(c *gin.Context) {
	date, err := dateParam(c.Query("date"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	serveView(s, c, "summary:daily:"+date, func(st ledger.State) core.PeriodSummary {
		return core.DailySummary(st.Expenses, st.Income, date)
	})
}

func (s *Server) handleMonthlySummary(c *gin.Context) {
	month, err := monthParam(c.Query("month"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	serveView(s, c, "summary:monthly:"+month, func(st ledger.State) core.PeriodSummary {
		return core.MonthlySummary(st.Expenses, st.Income, month)
	})
}

func (s *Server) handleYearlySummary(c *gin.Context) {
	year, err := yearParam(c.Query("year"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	serveView(s, c, "summary:yearly:"+strconv.Itoa(year), func(st ledger.State) core.PeriodSummary {
		return core.YearlySummary(st.Expenses, st.Income, year)
	})
}

// handleTrends charts monthly totals of one kind, expenses by default.
func (s *Server) handleTrends(c *gin.Context) {
	year, err := yearParam(c.Query("year"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	kind, err := kindParam(c.Query("type"))
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	if kind == "" {
		kind = core.KindExpense
	}
	serveView(s, c, "trends:"+string(kind)+":"+strconv.Itoa(year), func(st ledger.State) trendsResponse {
		list := st.Expenses
		if kind == core.KindIncome {
			list = st.Income
		}
		return trendsResponse{Year: year, Type: kind, Points: core.MonthlyTrends(list, year)}
	})
}

func (s *Server) handleSavingsTrends(c *gin.Context) {
	year, err := yearParam(c.Query("year"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	serveView(s, c, "trends:savings:"+strconv.Itoa(year), func(st ledger.State) trendsResponse {
		return trendsResponse{Year: year, Points: core.SavingsTrends(st.Expenses, st.Income, year)}
	})
}

func (s *Server) handleInsights(c *gin.Context) {
	month, err := monthParam(c.Query("month"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	serveView(s, c, "insights:"+month, func(st ledger.State) insightsResponse {
		return insightsResponse{
			Month:       month,
			Suggestions: s.engine.Generate(st.Expenses, st.Income, st.ExpenseLimits, month),
		}
	})
}

// handleExport downloads one month of expenses or income as CSV or XLSX.
func (s *Server) handleExport(c *gin.Context) {
	kind, err := kindParam(c.Query("type"))
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	if kind == "" {
		kind = core.KindExpense
	}
	month, err := monthParam(c.Query("month"), s.now())
	if err != nil {
		s.respondError(c, nil, "", err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		s.respondError(c, nil, "", fieldError("format", "Format must be csv or xlsx"))
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}
	st := sess.Snapshot()
	list := st.Expenses
	if kind == core.KindIncome {
		list = st.Income
	}
	list = core.FilterByMonth(list, month)

	var buf bytes.Buffer
	if err := export.Write(&buf, format, list); err != nil {
		s.respondError(c, sess, "Failed to export transactions", err)
		return
	}
	name := export.FileName(kind, month, format)
	s.requestLogger(c).InfoContext(c.Request.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, month,
		log.FieldKind, string(kind),
		log.FieldCount, len(list))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
