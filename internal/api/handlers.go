package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simple_mysql_go/internal/store"
)

type queryRequest struct {
	SQL  string `json:"sql" binding:"required"`
	Args []any  `json:"args"`
	// Mode is "table" (default) or "line".
	Mode               string `json:"mode"`
	Index              string `json:"index"`
	AllowDuplicateKeys bool   `json:"allow_duplicate_keys"`
}

type insertRequest struct {
	Values     map[string]any `json:"values" binding:"required"`
	Where      string         `json:"where"`
	Conditions string         `json:"conditions"`
	Extra      string         `json:"extra"`
}

type updateRequest struct {
	Values    map[string]any `json:"values" binding:"required"`
	Condition string         `json:"condition"`
	Args      []any          `json:"args"`
	// Limit defaults to 1; zero or less updates every matching row.
	Limit *int `json:"limit"`
}

type deleteRequest struct {
	Condition string `json:"condition"`
	Args      []any  `json:"args"`
}

func (s *Server) health(c *gin.Context) {
	s.mu.Lock()
	connected := s.helper.Connected()
	s.mu.Unlock()

	if !connected {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sql is required"})
		return
	}

	s.withHelper(c, func(ctx context.Context, h *store.Helper) {
		switch req.Mode {
		case "line":
			row, err := h.Line(ctx, req.SQL, req.Args...)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"row": row})
		case "", "table":
			opts := []store.TableOption{store.WithArgs(req.Args...)}
			if req.Index != "" {
				opts = append(opts, store.IndexBy(req.Index))
			}
			if req.AllowDuplicateKeys {
				opts = append(opts, store.AllowDuplicateKeys())
			}
			set, err := h.Table(ctx, req.SQL, opts...)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, set)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be line or table"})
		}
	})
}

func (s *Server) count(c *gin.Context) {
	table := c.Param("table")
	condition := c.Query("condition")

	s.withHelper(c, func(ctx context.Context, h *store.Helper) {
		n, err := h.CountRecords(ctx, table, condition)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"table": table, "count": n})
	})
}

func (s *Server) insert(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "values are required"})
		return
	}
	table := c.Param("table")

	s.withHelper(c, func(ctx context.Context, h *store.Helper) {
		id, err := h.Insert(ctx, table, req.Values, req.Where, store.InsertOptions{
			Conditions: req.Conditions,
			Extra:      req.Extra,
		})
		if err != nil && !errors.Is(err, store.ErrNoInsertID) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})
}

func (s *Server) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "values are required"})
		return
	}
	limit := 1
	if req.Limit != nil {
		limit = *req.Limit
	}
	table := c.Param("table")

	s.withHelper(c, func(ctx context.Context, h *store.Helper) {
		if err := h.Update(ctx, table, req.Values, req.Condition, limit, req.Args...); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})
}

func (s *Server) delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	table := c.Param("table")

	s.withHelper(c, func(ctx context.Context, h *store.Helper) {
		if err := h.Delete(ctx, table, req.Condition, req.Args...); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

func (s *Server) lastID(c *gin.Context) {
	s.withHelper(c, func(_ context.Context, h *store.Helper) {
		id, err := h.LastID()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
}

func (s *Server) workLog(c *gin.Context) {
	s.withHelper(c, func(_ context.Context, h *store.Helper) {
		c.JSON(http.StatusOK, gin.H{"labels": h.WorkLabels(), "work": h.WorkLog()})
	})
}

func (s *Server) errorLog(c *gin.Context) {
	s.withHelper(c, func(_ context.Context, h *store.Helper) {
		c.JSON(http.StatusOK, gin.H{"errors": h.ErrorLog()})
	})
}

// writeError maps helper errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var qerr *store.QueryError
	switch {
	case errors.Is(err, store.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrNoCondition), errors.Is(err, store.ErrNoData), errors.Is(err, store.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNoConnection):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &qerr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": qerr.Message, "sqlstate": qerr.SQLState})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
