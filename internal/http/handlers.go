package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paisa/internal/core"
	"paisa/internal/services"
)

// handleIngest replaces the stored transaction feed from an uploaded CSV.
// The file goes in a multipart field named "feed"; a raw CSV body works too.
// Row-level problems are reported, not fatal; only a structurally broken
// feed is rejected.
func (s *Server) handleIngest(c *gin.Context) {
	reader := c.Request.Body
	if file, _, err := c.Request.FormFile("feed"); err == nil {
		defer file.Close()
		reader = file
	}

	report, err := s.ingest.ReplaceFeed(c.Request.Context(), reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "feed replaced", "report": report})
}

func (s *Server) handleBillsGenerated(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	report, err := s.reports.BillsGenerated(c.Request.Context(), year, month)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleBillsDue(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	report, err := s.reports.BillsDue(c.Request.Context(), year, month)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req services.SimRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation request"})
		return
	}
	result, err := s.reports.CashFlow(c.Request.Context(), req)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTrends(c *gin.Context) {
	window, err := strconv.Atoi(c.DefaultQuery("window", "6"))
	if err != nil || window < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive integer"})
		return
	}
	excludeLast := c.DefaultQuery("exclude_last", "false") == "true"

	report, err := s.reports.Trends(c.Request.Context(), window, excludeLast)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ---- Instruments ----

func (s *Server) handleListInstruments(c *gin.Context) {
	instruments, err := s.store.ListInstruments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, instruments)
}

func (s *Server) handleUpsertInstrument(c *gin.Context) {
	var ir core.InstrumentRule
	if err := c.BindJSON(&ir); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instrument payload"})
		return
	}
	saved, err := s.store.UpsertInstrument(c.Request.Context(), ir)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteInstrument(c *gin.Context) {
	if err := s.store.DeleteInstrument(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "instrument deleted"})
}

// ---- Cycle overrides ----

func (s *Server) handleListOverrides(c *gin.Context) {
	overrides, err := s.store.ListOverrides(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overrides)
}

func (s *Server) handleUpsertOverride(c *gin.Context) {
	var ov core.CycleOverride
	if err := c.BindJSON(&ov); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid override payload"})
		return
	}
	saved, err := s.store.UpsertOverride(c.Request.Context(), ov)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteOverride(c *gin.Context) {
	if err := s.store.DeleteOverride(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "override deleted"})
}

// ---- Obligations ----

func (s *Server) handleListObligations(c *gin.Context) {
	obligations, err := s.store.ListObligations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, obligations)
}

func (s *Server) handleUpsertObligation(c *gin.Context) {
	var ob core.Obligation
	if err := c.BindJSON(&ob); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid obligation payload"})
		return
	}
	saved, err := s.store.UpsertObligation(c.Request.Context(), ob)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDeleteObligation(c *gin.Context) {
	if err := s.store.DeleteObligation(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "obligation deleted"})
}

// ---- Paid flags ----

func (s *Server) handleListFlags(c *gin.Context) {
	flags, err := s.store.GetPaidFlags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flags)
}

// flagRequest toggles one paid flag. Either a raw key or the structured
// fields may be supplied; structured fields build the canonical key.
type flagRequest struct {
	Key   string `json:"key"`
	Scope string `json:"scope"` // "CASH" or "CC"
	Name  string `json:"name"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Paid  bool   `json:"paid"`
}

func (s *Server) handleSetFlag(c *gin.Context) {
	var req flagRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flag payload"})
		return
	}

	key := req.Key
	if key == "" {
		if req.Name == "" || req.Month < 1 || req.Month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "flag needs a key or scope, name, year and month"})
			return
		}
		ym := core.YearMonth{Year: req.Year, Month: req.Month}
		switch req.Scope {
		case "CASH":
			key = core.ObligationFlagKey(req.Name, ym)
		case "CC":
			key = core.InstrumentFlagKey(req.Name, ym)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be CASH or CC"})
			return
		}
	}

	if err := s.store.SetPaidFlag(c.Request.Context(), key, req.Paid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "paid": req.Paid, "updated_at": time.Now().UTC()})
}

// ---- helpers ----

func yearMonthParams(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a positive integer"})
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return 0, 0, false
	}
	return year, month, true
}

func writeReportError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrInvalidMonth) || errors.Is(err, core.ErrInvalidRule) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrInvalidRule) || errors.Is(err, core.ErrInvalidOverride) ||
		errors.Is(err, core.ErrInvalidDay) || errors.Is(err, core.ErrInvalidMonth) ||
		errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrEmptyItem) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
