package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// SavedJobHandler handles saved job HTTP requests
type SavedJobHandler struct {
	savedJobRepository repositories.SavedJobRepository
	jobRepository      repositories.JobRepository
}

// NewSavedJobHandler creates a new SavedJobHandler
func NewSavedJobHandler(savedJobRepo repositories.SavedJobRepository, jobRepo repositories.JobRepository) *SavedJobHandler {
	return &SavedJobHandler{
		savedJobRepository: savedJobRepo,
		jobRepository:      jobRepo,
	}
}

// RegisterSavedJobRoutes registers saved job routes
func (h *SavedJobHandler) RegisterSavedJobRoutes(g *echo.Group) {
	g.POST("/jobs/:id/save", h.SaveJob)
	g.DELETE("/jobs/:id/save", h.UnsaveJob)
	g.GET("/jobs/saved", h.GetSavedJobs)
}

// SaveJob bookmarks a job posting
func (h *SavedJobHandler) SaveJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	if _, err := h.jobRepository.GetJobByID(uint(jobID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isSaved, _ := h.savedJobRepository.IsJobSaved(currentUserID, uint(jobID))
	if isSaved {
		return httpError(apperrors.ErrJobAlreadySaved)
	}

	savedJob := &models.SavedJob{
		UserID: currentUserID,
		JobID:  uint(jobID),
	}

	if err := h.savedJobRepository.SaveJob(savedJob); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": true}})
}

// UnsaveJob removes a job from the saved list
func (h *SavedJobHandler) UnsaveJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	if err := h.savedJobRepository.UnsaveJob(currentUserID, uint(jobID)); err != nil {
		if errors.Is(err, repositories.ErrSavedJobNotFound) {
			return httpError(apperrors.ErrJobNotSaved)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false}})
}

// GetSavedJobs lists the current user's bookmarked postings, most recently
// saved first. Postings deleted since saving are skipped.
func (h *SavedJobHandler) GetSavedJobs(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	saved, err := h.savedJobRepository.GetSavedJobsByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	jobs := make([]models.Job, 0, len(saved))
	for _, s := range saved {
		job, err := h.jobRepository.GetJobByID(s.JobID)
		if err != nil {
			continue
		}
		jobs = append(jobs, *job)
	}

	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs, "count": len(jobs)})
}
