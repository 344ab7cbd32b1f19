package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"surveydash/adapters/excel"
	"surveydash/app"
	"surveydash/domain/core"
	"surveydash/domain/run"
	apperrors "surveydash/internal/errors"
	"surveydash/internal/session"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.service.Sessions().Len(),
		"archive":  s.service.ArchiveEnabled(),
	})
}

func (s *Server) handleDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Datasets())
}

func (s *Server) handleInterventions(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Interventions())
}

func (s *Server) handleCommandKinds(c *gin.Context) {
	c.JSON(http.StatusOK, app.CommandKinds())
}

type createSessionRequest struct {
	Dataset        string `json:"dataset" binding:"required"`
	SubmittedAfter string `json:"submitted_after"`
	Refresh        bool   `json:"refresh"` // bypass cached survey data
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	after, err := parseDate(req.SubmittedAfter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if req.Refresh {
		s.service.FlushSourceCache()
	}
	sess, err := s.service.LoadSession(c.Request.Context(), req.Dataset, after)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Info())
}

// handleUploadSession opens a session over an uploaded xlsx or csv file
func (s *Server) handleUploadSession(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, apperrors.InvalidInput("missing file field"))
		return
	}
	f, err := header.Open()
	if err != nil {
		abortWithError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	defer f.Close()

	table, err := excel.Read(f, excel.FormatFromPath(header.Filename))
	if err != nil {
		abortWithError(c, apperrors.InvalidInput(fmt.Sprintf("could not read %s: %v", header.Filename, err)))
		return
	}
	sess := s.service.OpenSession(filepath.Base(header.Filename), table)
	c.JSON(http.StatusCreated, sess.Info())
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.service.Sessions().List()
	out := make([]session.Info, len(sessions))
	for i, sess := range sessions {
		out[i] = sess.Info()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Info())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.service.Sessions().Delete(currentSession(c).ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCommand(c *gin.Context) {
	resp, ok := s.dispatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleExport runs a command and streams its table as a workbook
func (s *Server) handleExport(c *gin.Context) {
	resp, ok := s.dispatch(c)
	if !ok {
		return
	}
	bucket := c.Query("bucket")
	table, err := resp.ExportTable(bucket)
	if err != nil {
		abortWithError(c, err)
		return
	}

	name := string(resp.Kind)
	if bucket != "" {
		name += "_" + bucket
	}
	var buf bytes.Buffer
	if err := excel.Write(&buf, table, excel.DefaultSheet); err != nil {
		s.logger.Error("export of %s failed: %v", name, err)
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	c.Data(http.StatusOK, excel.ContentType, buf.Bytes())
}

func (s *Server) dispatch(c *gin.Context) (*app.Response, bool) {
	var req app.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	resp, err := s.service.Dispatch(c.Request.Context(), currentSession(c), req)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return resp, true
}

// handleReport renders an intervention report. Filters may be passed as a
// JSON request body; format=md returns the markdown source.
func (s *Server) handleReport(c *gin.Context) {
	var req app.Request
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, apperrors.InvalidInput(err.Error()))
			return
		}
	}
	req.Intervention = c.Param("intervention")

	md, page, err := s.service.RenderReport(c.Request.Context(), currentSession(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, apperrors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := s.service.ListRuns(c.Request.Context(), run.Filter{Intervention: c.Query("intervention"), Limit: limit})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	rn, err := s.service.GetRun(c.Request.Context(), core.RunID(c.Param("runId")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rn)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp; empty is zero
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("invalid date %q", s))
}
