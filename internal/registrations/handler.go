package registrations

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evolve-africa/backend/internal/models"
	"github.com/evolve-africa/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename  = "evolve_africa_users.xlsx"
)

// RegisterRequest is the body for POST /register. Only email is required;
// name presence is not enforced.
type RegisterRequest struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email" binding:"required"`
	Phone            string `json:"phone"`
	Location         string `json:"location"`
	CourseOfInterest string `json:"courseOfInterest"`
	SelectedSession  string `json:"selectedSession"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reg, err := h.svc.Create(c.Request.Context(), CreateInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		Location:         req.Location,
		CourseOfInterest: req.CourseOfInterest,
		SelectedSession:  req.SelectedSession,
	})
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		response.Conflict(c, "Email already registered")
	case errors.Is(err, ErrInvalidSession):
		response.BadRequest(c, "Invalid selectedSession. Use one of: "+strings.Join(models.Sessions, ", "))
	case errors.Is(err, ErrEmailRequired):
		response.BadRequest(c, "email is required")
	case err != nil:
		h.logger.Error("create registration failed", zap.Error(err))
		response.Internal(c, "Registration failed")
	default:
		response.Created(c, "Registration successful", gin.H{"user": reg})
	}
}

// List handles GET /registrations?page=&limit=.
func (h *Handler) List(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), DefaultLimit)

	result, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "Failed to fetch registrations")
		return
	}
	response.OK(c, "registrations fetched", result)
}

// Filter handles GET /filter?search=&session=&date=&location= (lenient:
// substring search, unknown sessions ignored, empty filters allowed).
func (h *Handler) Filter(c *gin.Context) {
	regs, err := h.svc.Filter(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("filter registrations failed", zap.Error(err))
		response.Internal(c, "Failed to filter registrations")
		return
	}
	response.OK(c, "registrations filtered", regs)
}

// strictFilterBody is the response for GET /registrations/search.
type strictFilterBody struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	Count          int                   `json:"count"`
	FiltersApplied map[string]string     `json:"filtersApplied"`
	Data           []models.Registration `json:"data,omitempty"`
}

// FilterStrict handles GET /registrations/search (strict: at least one
// filter, case-sensitive equality, explicit no-match result).
func (h *Handler) FilterStrict(c *gin.Context) {
	f := filterFromQuery(c)
	regs, err := h.svc.FilterStrict(c.Request.Context(), f)
	switch {
	case errors.Is(err, ErrNoFilters):
		c.JSON(http.StatusBadRequest, strictFilterBody{
			Message:        err.Error(),
			FiltersApplied: f.Applied(),
		})
	case errors.Is(err, ErrInvalidSession), errors.Is(err, ErrInvalidDate):
		c.JSON(http.StatusBadRequest, strictFilterBody{
			Message:        err.Error(),
			FiltersApplied: f.Applied(),
		})
	case errors.Is(err, ErrNoRegistrations):
		c.JSON(http.StatusNotFound, strictFilterBody{
			Message:        "no registrations matched the supplied filters",
			FiltersApplied: f.Applied(),
		})
	case err != nil:
		h.logger.Error("strict filter failed", zap.Error(err))
		response.Internal(c, "Failed to filter registrations")
	default:
		c.JSON(http.StatusOK, strictFilterBody{
			Success:        true,
			Message:        "registrations matched",
			Count:          len(regs),
			FiltersApplied: f.Applied(),
			Data:           regs,
		})
	}
}

// Delete handles DELETE /delete/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}

	reg, err := h.svc.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "User not found")
	case err != nil:
		h.logger.Error("delete registration failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Failed to delete user")
	default:
		response.OK(c, "User deleted successfully", gin.H{"user": reg})
	}
}

// ExportExcel handles GET /export/excel. Streams an xlsx attachment with
// every registration; an empty collection is a 404, not an empty file.
func (h *Handler) ExportExcel(c *gin.Context) {
	buf, err := h.svc.ExportExcel(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNoRegistrations) {
			response.NotFound(c, "No users found")
			return
		}
		h.logger.Error("export failed", zap.Error(err))
		response.Internal(c, "Failed to export registrations")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func filterFromQuery(c *gin.Context) Filter {
	return Filter{
		Search:   c.Query("search"),
		Session:  c.Query("session"),
		Date:     c.Query("date"),
		Location: c.Query("location"),
	}
}

// parseIntDefault parses a positive integer query value, falling back to
// def on missing, non-numeric, or non-positive input.
func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}
