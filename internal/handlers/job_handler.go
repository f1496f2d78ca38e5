package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// JobHandler handles HTTP requests related to job postings and applications
type JobHandler struct {
	jobRepository  repositories.JobRepository
	userRepository repositories.UserRepository
	fanout         *notify.Fanout
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobRepo repositories.JobRepository, userRepo repositories.UserRepository, fanout *notify.Fanout) *JobHandler {
	return &JobHandler{
		jobRepository:  jobRepo,
		userRepository: userRepo,
		fanout:         fanout,
	}
}

// RegisterJobRoutes registers job-related routes
func (h *JobHandler) RegisterJobRoutes(g *echo.Group) {
	g.POST("/jobs", h.CreateJob)
	g.GET("/jobs", h.GetJobs)
	g.GET("/jobs/mine", h.GetMyJobs)
	g.GET("/jobs/:id", h.GetJob)
	g.PUT("/jobs/:id", h.UpdateJob)
	g.DELETE("/jobs/:id", h.DeleteJob)
	g.POST("/jobs/:id/apply", h.ApplyToJob)
	g.GET("/jobs/:id/applications", h.GetJobApplications)
	g.GET("/applications", h.GetMyApplications)
	g.PUT("/applications/:id/status", h.UpdateApplicationStatus)
}

// EnrichedApplication is an application with the applicant's card, shown to
// the job poster
type EnrichedApplication struct {
	models.JobApplication
	Applicant models.UserCompact `json:"applicant"`
}

// ApplicationWithJob is an application with its posting, shown to the applicant
type ApplicationWithJob struct {
	models.JobApplication
	Job models.Job `json:"job"`
}

// CreateJob creates a new job posting
func (h *JobHandler) CreateJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job := &models.Job{
		PosterID:       currentUserID,
		Title:          req.Title,
		Company:        req.Company,
		Location:       req.Location,
		Description:    req.Description,
		EmploymentType: req.EmploymentType,
		SalaryRange:    req.SalaryRange,
		IsOpen:         true,
	}

	if err := h.jobRepository.CreateJob(job); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, job)
}

// GetJobs lists job postings, newest first. An optional q parameter searches
// title, company and location.
func (h *JobHandler) GetJobs(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var (
		jobs  []models.Job
		total int64
		err   error
	)
	if query := c.QueryParam("q"); query != "" {
		jobs, total, err = h.jobRepository.SearchJobs(query, page, limit)
	} else {
		jobs, total, err = h.jobRepository.GetJobs(page, limit)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"jobs": jobs,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetMyJobs lists the current user's own postings
func (h *JobHandler) GetMyJobs(c echo.Context) error {
	jobs, err := h.jobRepository.GetJobsByPosterID(getUserIDFromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs, "count": len(jobs)})
}

// GetJob retrieves a job posting by ID
func (h *JobHandler) GetJob(c echo.Context) error {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.jobRepository.GetJobByID(uint(jobID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, job)
}

// UpdateJob edits a job posting
func (h *JobHandler) UpdateJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	var req models.UpdateJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobRepository.GetJobByID(uint(jobID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if job.PosterID != currentUserID {
		return httpError(apperrors.ErrJobOwnerOnly)
	}

	if req.Title != "" {
		job.Title = req.Title
	}
	if req.Company != "" {
		job.Company = req.Company
	}
	if req.Location != "" {
		job.Location = req.Location
	}
	if req.Description != "" {
		job.Description = req.Description
	}
	if req.EmploymentType != "" {
		job.EmploymentType = req.EmploymentType
	}
	if req.SalaryRange != "" {
		job.SalaryRange = req.SalaryRange
	}
	if req.IsOpen != nil {
		job.IsOpen = *req.IsOpen
	}

	if err := h.jobRepository.UpdateJob(job); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, job)
}

// DeleteJob removes a job posting
func (h *JobHandler) DeleteJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.jobRepository.GetJobByID(uint(jobID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if job.PosterID != currentUserID {
		return httpError(apperrors.ErrJobOwnerOnly)
	}

	if err := h.jobRepository.DeleteJob(uint(jobID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ApplyToJob submits an application to an open posting
func (h *JobHandler) ApplyToJob(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	var req models.ApplyToJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobRepository.GetJobByID(uint(jobID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if job.PosterID == currentUserID {
		return httpError(apperrors.ErrOwnJobApplication)
	}
	if !job.IsOpen {
		return httpError(apperrors.ErrJobClosed)
	}

	if _, err := h.jobRepository.GetApplication(uint(jobID), currentUserID); err == nil {
		return httpError(apperrors.ErrAlreadyApplied)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	app := &models.JobApplication{
		JobID:       uint(jobID),
		ApplicantID: currentUserID,
		CoverNote:   req.CoverNote,
		ResumeURL:   req.ResumeURL,
		Status:      models.ApplicationStatusApplied,
	}

	if err := h.jobRepository.CreateApplication(app); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if applicant, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationJobApplication,
			RecipientID: job.PosterID,
			SenderID:    currentUserID,
			Message:     applicant.Name + " applied to " + job.Title,
			RefKind:     models.RefKindJob,
			RefID:       strconv.FormatUint(jobID, 10),
		})
	}

	return c.JSON(http.StatusCreated, app)
}

// GetJobApplications lists applications for a posting, visible to the poster
func (h *JobHandler) GetJobApplications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.jobRepository.GetJobByID(uint(jobID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrJobNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if job.PosterID != currentUserID {
		return httpError(apperrors.ErrJobOwnerOnly)
	}

	apps, err := h.jobRepository.GetApplicationsByJobID(uint(jobID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	applicantIDs := make([]uint, len(apps))
	for i, a := range apps {
		applicantIDs[i] = a.ApplicantID
	}

	userMap := make(map[uint]models.UserCompact)
	if users, err := h.userRepository.GetUsersByIDs(applicantIDs); err == nil {
		for _, u := range users {
			userMap[u.ID] = u.ToCompact()
		}
	}

	enriched := make([]EnrichedApplication, len(apps))
	for i, a := range apps {
		enriched[i] = EnrichedApplication{JobApplication: a, Applicant: userMap[a.ApplicantID]}
	}

	return c.JSON(http.StatusOK, echo.Map{"applications": enriched, "count": len(enriched)})
}

// GetMyApplications lists the current user's applications with their postings
func (h *JobHandler) GetMyApplications(c echo.Context) error {
	apps, err := h.jobRepository.GetApplicationsByApplicantID(getUserIDFromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	jobCache := make(map[uint]*models.Job)
	enriched := make([]ApplicationWithJob, len(apps))
	for i, a := range apps {
		enriched[i] = ApplicationWithJob{JobApplication: a}
		job, ok := jobCache[a.JobID]
		if !ok {
			job, err = h.jobRepository.GetJobByID(a.JobID)
			if err != nil {
				continue
			}
			jobCache[a.JobID] = job
		}
		enriched[i].Job = *job
	}

	return c.JSON(http.StatusOK, echo.Map{"applications": enriched, "count": len(enriched)})
}

// UpdateApplicationStatus moves an application through its states, poster only
func (h *JobHandler) UpdateApplicationStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid application ID")
	}

	var req models.UpdateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	app, err := h.jobRepository.GetApplicationByID(uint(appID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperrors.ErrApplicationNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	job, err := h.jobRepository.GetJobByID(app.JobID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if job.PosterID != currentUserID {
		return httpError(apperrors.ErrJobOwnerOnly)
	}

	if err := h.jobRepository.UpdateApplicationStatus(uint(appID), req.Status); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	app.Status = req.Status

	_ = h.fanout.Publish(notify.Event{
		Type:        models.NotificationJobApplicationUpdate,
		RecipientID: app.ApplicantID,
		SenderID:    currentUserID,
		Message:     "Your application for " + job.Title + " was " + req.Status,
		RefKind:     models.RefKindJob,
		RefID:       strconv.FormatUint(uint64(app.JobID), 10),
	})

	return c.JSON(http.StatusOK, app)
}
