package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avoigt/refgen/internal/jobs"
	"github.com/avoigt/refgen/internal/models"
)

// handleGenerate creates a job and launches its pipeline without waiting
// for it. The caller gets the job id back immediately; everything after
// that is observable only through polling.
func (s *Server) handleGenerate(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	jobID := uuid.New().String()[:8]
	s.registry.Create(jobID)

	if _, ok := s.registry.Get(jobID); !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create job"})
		return
	}

	s.pipeline.Launch(jobID, req)

	s.logger.Info("job accepted", "job_id", jobID, "topic", req.Topic)
	c.JSON(http.StatusOK, models.GenerateResponse{JobID: jobID})
}

// handleStatus reports the job's current state. Safe to call at any rate.
func (s *Server) handleStatus(c *gin.Context) {
	job, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "job not found"})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:   string(job.Status),
		Progress: job.Progress,
		Message:  job.Message,
		Error:    job.Error,
	})
}

// handleDownload serves the finished PDF and schedules the record for
// deletion after the retention window.
func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")

	job, ok := s.registry.Get(id)
	if !ok || job.Status != jobs.StatusCompleted || len(job.Result) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "document not found"})
		return
	}

	s.registry.ScheduleDelete(id, s.retention)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="project-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", job.Result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "jobs": s.registry.Len()})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}
