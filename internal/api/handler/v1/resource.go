package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-api/internal/api/handler/v1/request"
	"github.com/campuslink/campuslink-api/internal/api/handler/v1/response"
	"github.com/campuslink/campuslink-api/internal/domain"
	"github.com/campuslink/campuslink-api/internal/service"
)

type ResourceService interface {
	CreateResource(ctx context.Context, resource domain.Resource) (domain.Resource, error)
	GetResource(ctx context.Context, id uint) (domain.Resource, error)
	ListResources(ctx context.Context, kind string) ([]domain.Resource, error)
	UpdateResource(ctx context.Context, resource domain.Resource, actor domain.User) (domain.Resource, error)
	RegisteredCount(ctx context.Context, resourceID uint) (int, error)
}

type AdmissionService interface {
	Join(ctx context.Context, resourceID uint, actor *domain.User, displayName string) (service.JoinResult, error)
	Leave(ctx context.Context, resourceID uint, actor domain.User) (*domain.Participation, error)
	Participants(ctx context.Context, resourceID uint) ([]domain.Participation, error)
}

type ResourceHandler struct {
	svc          ResourceService
	admissionSvc AdmissionService
	uSvc         UserService
}

func NewResourceHandler(svc ResourceService, admissionSvc AdmissionService, uSvc UserService) *ResourceHandler {
	return &ResourceHandler{
		svc:          svc,
		admissionSvc: admissionSvc,
		uSvc:         uSvc,
	}
}

func parseResourceID(ctx *gin.Context) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param("resourceID"), 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid resource ID: %v", err))
	}

	return uint(id), nil
}

// HandleCreateResource godoc
// @Summary      Create a session offering or tournament
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateResourceRequest  true  "resource details"
// @Success      201    {object}  domain.Resource
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /resources [post]
// @Security BearerAuth
func (h *ResourceHandler) HandleCreateResource(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreateResourceRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	// Tutors publish sessions, organizers publish tournaments.
	switch input.Kind {
	case domain.ResourceKindSession:
		if user.Role != "tutor" && !user.IsAdmin() {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a tutor", user.ID)))
			return
		}
	case domain.ResourceKindTournament:
		if user.Role != "organizer" && !user.IsAdmin() {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
			return
		}
	}

	startTime, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid start time: %v", err)))
		return
	}

	resource := domain.Resource{
		Kind:            input.Kind,
		OwnerID:         user.ID,
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		StartTime:       startTime,
		HourlyRate:      input.HourlyRate,
		Prize:           input.Prize,
		MaxParticipants: input.MaxParticipants,
	}

	created, err := h.svc.CreateResource(ctx.Request.Context(), resource)
	if err != nil {
		err = fmt.Errorf("HandleCreateResource -> h.svc.CreateResource -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListResources godoc
// @Summary      List resources of a kind
// @Tags         resources
// @Produce      json
// @Param        kind  query     string  false  "session or tournament"
// @Success      200   {array}   domain.Resource
// @Failure      500   {object}  response.Err
// @Router       /resources [get]
func (h *ResourceHandler) HandleListResources(ctx *gin.Context) {
	kind := ctx.DefaultQuery("kind", domain.ResourceKindSession)

	resources, err := h.svc.ListResources(ctx.Request.Context(), kind)
	if err != nil {
		err = fmt.Errorf("HandleListResources -> h.svc.ListResources -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, resources)
}

// HandleGetResource godoc
// @Summary      Get a resource with its registered count
// @Tags         resources
// @Produce      json
// @Param        resourceID  path      int  true  "resource ID"
// @Success      200         {object}  domain.Resource
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID} [get]
func (h *ResourceHandler) HandleGetResource(ctx *gin.Context) {
	resourceID, respErr := parseResourceID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	resource, err := h.svc.GetResource(ctx.Request.Context(), resourceID)
	if err != nil {
		if errors.Is(err, service.ErrResourceNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
			return
		}
		if errors.Is(err, service.ErrStorageUnavailable) {
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
			return
		}

		err = fmt.Errorf("HandleGetResource -> h.svc.GetResource -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, resource)
}

// HandleUpdateResource godoc
// @Summary      Update a resource (owner only)
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resourceID  path      int                            true  "resource ID"
// @Param        input       body      request.UpdateResourceRequest  true  "resource details"
// @Success      200         {object}  domain.Resource
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID} [put]
// @Security BearerAuth
func (h *ResourceHandler) HandleUpdateResource(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	resourceID, respErr := parseResourceID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.UpdateResourceRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	startTime, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid start time: %v", err)))
		return
	}

	resource := domain.Resource{
		ID:              resourceID,
		Title:           input.Title,
		Description:     input.Description,
		Location:        input.Location,
		StartTime:       startTime,
		HourlyRate:      input.HourlyRate,
		Prize:           input.Prize,
		MaxParticipants: input.MaxParticipants,
	}

	updated, err := h.svc.UpdateResource(ctx.Request.Context(), resource, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
		case errors.Is(err, service.ErrNotResourceOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("HandleUpdateResource -> h.svc.UpdateResource -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleJoinResource godoc
// @Summary      Join a resource or get waitlisted
// @Description  Admits the caller to the roster if capacity allows, otherwise waitlists them. Anonymous callers get an advisory decision without a persisted record.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resourceID  path      int                          true  "resource ID"
// @Param        input       body      request.JoinResourceRequest  true  "join details"
// @Success      200         {object}  response.JoinResponse
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID}/join [post]
func (h *ResourceHandler) HandleJoinResource(ctx *gin.Context) {
	actor, respErr := optionalUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	resourceID, respErr := parseResourceID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.JoinResourceRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.admissionSvc.Join(ctx.Request.Context(), resourceID, actor, input.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrResourceNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
			return
		}

		err = fmt.Errorf("HandleJoinResource -> h.admissionSvc.Join -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.JoinResponse{
		Outcome:    result.Outcome,
		Registered: result.Registered,
		Capacity:   result.Capacity,
		Degraded:   result.Degraded,
		Advisory:   result.Advisory,
	})
}

// HandleLeaveResource godoc
// @Summary      Leave a resource
// @Description  Removes the caller's participation; freeing a registered slot promotes the oldest waitlisted participant.
// @Tags         resources
// @Produce      json
// @Param        resourceID  path      int  true  "resource ID"
// @Success      200         {object}  response.LeaveResponse
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID}/leave [post]
// @Security BearerAuth
func (h *ResourceHandler) HandleLeaveResource(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	resourceID, respErr := parseResourceID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	promoted, err := h.admissionSvc.Leave(ctx.Request.Context(), resourceID, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
		case errors.Is(err, service.ErrParticipantNotFound):
			response.RenderErr(ctx, response.ErrNotFound("participation", "userID", user.ID))
		case errors.Is(err, service.ErrStorageUnavailable):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		default:
			err = fmt.Errorf("HandleLeaveResource -> h.admissionSvc.Leave -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.LeaveResponse{
		Message:  "left resource",
		Promoted: promoted,
	})
}

// HandleGetParticipants godoc
// @Summary      List participants of a resource
// @Tags         resources
// @Produce      json
// @Param        resourceID  path      int  true  "resource ID"
// @Success      200         {array}   domain.Participation
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID}/participants [get]
func (h *ResourceHandler) HandleGetParticipants(ctx *gin.Context) {
	resourceID, respErr := parseResourceID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participants, err := h.admissionSvc.Participants(ctx.Request.Context(), resourceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
		case errors.Is(err, service.ErrStorageUnavailable):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		default:
			err = fmt.Errorf("HandleGetParticipants -> h.admissionSvc.Participants -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, participants)
}
