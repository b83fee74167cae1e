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

type BookingService interface {
	Create(ctx context.Context, resourceID uint, requesterName string, requesterID *uint, startTime time.Time, durationMinutes int) (domain.Booking, error)
	Transition(ctx context.Context, bookingID uint, actor domain.User, newStatus, meetingLink string) (domain.Booking, error)
	GetBooking(ctx context.Context, id uint) (domain.Booking, error)
	BookingsForResource(ctx context.Context, resourceID uint, actor domain.User) ([]domain.Booking, error)
	BookingsForRequester(ctx context.Context, requesterID uint) ([]domain.Booking, error)
}

type BookingHandler struct {
	svc  BookingService
	uSvc UserService
}

func NewBookingHandler(svc BookingService, uSvc UserService) *BookingHandler {
	return &BookingHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func parseBookingID(ctx *gin.Context) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param("bookingID"), 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid booking ID: %v", err))
	}

	return uint(id), nil
}

// HandleCreateBooking godoc
// @Summary      Request a booking against a session
// @Description  Creates a pending booking. The total is priced from the session's current hourly rate and the duration rounded up to 15 minute units.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        resourceID  path      int                           true  "resource ID"
// @Param        input       body      request.CreateBookingRequest  true  "booking details"
// @Success      201         {object}  domain.Booking
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Failure      503         {object}  response.Err
// @Router       /resources/{resourceID}/bookings [post]
func (h *BookingHandler) HandleCreateBooking(ctx *gin.Context) {
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

	var input request.CreateBookingRequest
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

	var requesterID *uint
	requesterName := input.RequesterName
	if actor != nil {
		requesterID = &actor.ID
		if requesterName == "" {
			requesterName = actor.Name
		}
	}

	booking, err := h.svc.Create(ctx.Request.Context(), resourceID, requesterName, requesterID, startTime, input.DurationMinutes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
		case errors.Is(err, service.ErrMissingResourceID):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrStorageUnavailable):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		default:
			err = fmt.Errorf("HandleCreateBooking -> h.svc.Create -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, booking)
}

// HandleTransitionBooking godoc
// @Summary      Accept or reject a pending booking
// @Description  Only the owning tutor or an admin may decide. Repeating the current decision is a no-op; reversing a terminal decision is a conflict.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        bookingID  path      int                               true  "booking ID"
// @Param        input      body      request.TransitionBookingRequest  true  "decision"
// @Success      200        {object}  domain.Booking
// @Failure      400        {object}  response.Err
// @Failure      401        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /bookings/{bookingID}/status [put]
// @Security BearerAuth
func (h *BookingHandler) HandleTransitionBooking(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	bookingID, respErr := parseBookingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.TransitionBookingRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	booking, err := h.svc.Transition(ctx.Request.Context(), bookingID, user, input.Status, input.MeetingLink)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			response.RenderErr(ctx, response.ErrNotFound("booking", "ID", bookingID))
		case errors.Is(err, service.ErrInvalidBookingStatus):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNotResourceOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrTerminalBooking), errors.Is(err, service.ErrRejectedImmutable):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("HandleTransitionBooking -> h.svc.Transition -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, booking)
}

// HandleGetBooking godoc
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Param        bookingID  path      int  true  "booking ID"
// @Success      200        {object}  domain.Booking
// @Failure      400        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /bookings/{bookingID} [get]
func (h *BookingHandler) HandleGetBooking(ctx *gin.Context) {
	bookingID, respErr := parseBookingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	booking, err := h.svc.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("booking", "ID", bookingID))
			return
		}

		err = fmt.Errorf("HandleGetBooking -> h.svc.GetBooking -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, booking)
}

// HandleListResourceBookings godoc
// @Summary      List bookings against a resource (owner only)
// @Tags         bookings
// @Produce      json
// @Param        resourceID  path      int  true  "resource ID"
// @Success      200         {array}   domain.Booking
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /resources/{resourceID}/bookings [get]
// @Security BearerAuth
func (h *BookingHandler) HandleListResourceBookings(ctx *gin.Context) {
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

	bookings, err := h.svc.BookingsForResource(ctx.Request.Context(), resourceID, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.RenderErr(ctx, response.ErrNotFound("resource", "ID", resourceID))
		case errors.Is(err, service.ErrNotResourceOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("HandleListResourceBookings -> h.svc.BookingsForResource -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// HandleListMyBookings godoc
// @Summary      List the caller's bookings
// @Tags         bookings
// @Produce      json
// @Success      200  {array}   domain.Booking
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /bookings [get]
// @Security BearerAuth
func (h *BookingHandler) HandleListMyBookings(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	bookings, err := h.svc.BookingsForRequester(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("HandleListMyBookings -> h.svc.BookingsForRequester -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}
