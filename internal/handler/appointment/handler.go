package appointment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type Handler struct {
	scheduler *scheduling.Service
	queries   *scheduling.QueryEngine
}

func NewHandler(scheduler *scheduling.Service, queries *scheduling.QueryEngine) *Handler {
	return &Handler{scheduler: scheduler, queries: queries}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		staff := auth.RequireRoles(model.RoleAdmin, model.RoleReceptionist)

		appointments.POST("", staff, h.Create)
		appointments.GET("", auth.RequireRoles(model.RoleAdmin), h.List)
		appointments.GET("/me", auth.RequireRoles(model.RoleDoctor), h.ListMine)
		appointments.GET("/doctor/:id", auth.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.ListForDoctor)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id/reschedule", staff, h.Reschedule)
		appointments.PATCH("/:id/cancel", staff, h.Cancel)
		appointments.PATCH("/:id/complete", auth.RequireRoles(model.RoleDoctor), h.Complete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request body"))
		return
	}

	detail, err := h.scheduler.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(detail))
}

// List serves the filtered, sorted, paginated appointment listing.
// Unknown filter values are rejected; unknown sort keys fall back to
// the default inside the query engine.
func (h *Handler) List(c *gin.Context) {
	query, err := parseQuery(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	page, err := h.queries.Query(c.Request.Context(), query)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

// ListMine serves the calling doctor's own appointments.
func (h *Handler) ListMine(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthorized("not authenticated"))
		return
	}
	if claims.DoctorID == nil {
		handler.RespondError(c, apperrors.Forbidden("account is not linked to a doctor"))
		return
	}

	query, err := parseQuery(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	query.DoctorID = claims.DoctorID

	page, err := h.queries.Query(c.Request.Context(), query)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	// A doctor without the admin role may only read their own book.
	claims, _ := middleware.ClaimsFromContext(c)
	if claims != nil && !claims.HasRole(model.RoleAdmin) {
		if claims.DoctorID == nil || *claims.DoctorID != doctorID {
			handler.RespondError(c, apperrors.Forbidden("appointments belong to another doctor"))
			return
		}
	}

	items, err := h.scheduler.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	detail, err := h.scheduler.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request body"))
		return
	}

	detail, err := h.scheduler.Reschedule(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.scheduler.Cancel(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"status": model.AppointmentStatusCancelled}))
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	// A doctor may only complete appointments in their own book.
	claims, _ := middleware.ClaimsFromContext(c)
	if claims != nil && claims.HasRole(model.RoleDoctor) &&
		!claims.HasRole(model.RoleAdmin) && !claims.HasRole(model.RoleReceptionist) {
		detail, err := h.scheduler.Get(c.Request.Context(), id)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		if claims.DoctorID == nil || detail.DoctorID != *claims.DoctorID {
			handler.RespondError(c, apperrors.Forbidden("appointment belongs to another doctor"))
			return
		}
	}

	if err := h.scheduler.Complete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"status": model.AppointmentStatusCompleted}))
}

// parseQuery builds an appointment query from URL parameters. Malformed
// typed values (UUIDs, timestamps, status) are rejected outright.
func parseQuery(c *gin.Context) (*model.AppointmentQuery, error) {
	q := &model.AppointmentQuery{
		SortBy:      model.AppointmentSortField(c.Query("sort_by")),
		SortDir:     model.SortDirection(c.Query("sort_dir")),
		PatientName: c.Query("patient_name"),
		DoctorName:  c.Query("doctor_name"),
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.Validation("page must be an integer")
		}
		q.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.Validation("page_size must be an integer")
		}
		q.PageSize = size
	}

	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("patient_id must be a valid UUID")
		}
		q.PatientID = &id
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("doctor_id must be a valid UUID")
		}
		q.DoctorID = &id
	}

	if raw := c.Query("status"); raw != "" {
		status := model.AppointmentStatus(raw)
		if !status.Valid() {
			return nil, apperrors.Validation("status must be one of scheduled, completed, cancelled")
		}
		q.Status = &status
	}

	var err error
	if q.From, err = parseTimeParam(c, "date_from"); err != nil {
		return nil, err
	}
	if q.To, err = parseTimeParam(c, "date_to"); err != nil {
		return nil, err
	}
	if q.CreatedFrom, err = parseTimeParam(c, "created_from"); err != nil {
		return nil, err
	}
	if q.CreatedTo, err = parseTimeParam(c, "created_to"); err != nil {
		return nil, err
	}

	return q, nil
}

func parseTimeParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.Validation(name + " must be an RFC 3339 timestamp")
	}
	return &t, nil
}
