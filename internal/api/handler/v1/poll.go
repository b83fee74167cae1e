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

type PollService interface {
	CreatePoll(ctx context.Context, poll domain.Poll, optionLabels []string) (domain.Poll, error)
	UpdatePoll(ctx context.Context, pollID uint, actor domain.User, update domain.Poll) (domain.Poll, error)
	GetPoll(ctx context.Context, pollID uint) (domain.Poll, error)
	ListPolls(ctx context.Context) ([]domain.Poll, error)
	CastVote(ctx context.Context, pollID, voterID uint, optionID string) (string, error)
	Tally(ctx context.Context, pollID uint) (map[string]int, error)
	VoterChoice(ctx context.Context, pollID, voterID uint) (string, error)
}

type PollHandler struct {
	svc  PollService
	uSvc UserService
}

func NewPollHandler(svc PollService, uSvc UserService) *PollHandler {
	return &PollHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func parsePollID(ctx *gin.Context) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param("pollID"), 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid poll ID: %v", err))
	}

	return uint(id), nil
}

func parsePollDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %v", err)
	}

	return &t, nil
}

// HandleCreatePoll godoc
// @Summary      Create a poll
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreatePollRequest  true  "poll details"
// @Success      201    {object}  domain.Poll
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /polls [post]
// @Security BearerAuth
func (h *PollHandler) HandleCreatePoll(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreatePollRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	startDate, err := parsePollDate(input.StartDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	endDate, err := parsePollDate(input.EndDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	poll := domain.Poll{
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   user.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    true,
	}

	created, err := h.svc.CreatePoll(ctx.Request.Context(), poll, input.Options)
	if err != nil {
		err = fmt.Errorf("HandleCreatePoll -> h.svc.CreatePoll -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleUpdatePoll godoc
// @Summary      Update a poll and its options (creator only)
// @Description  Options keeping their option_id survive with their ballots; removed options take their ballots with them.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        pollID  path      int                        true  "poll ID"
// @Param        input   body      request.UpdatePollRequest  true  "poll details"
// @Success      200     {object}  domain.Poll
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /polls/{pollID} [put]
// @Security BearerAuth
func (h *PollHandler) HandleUpdatePoll(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	pollID, respErr := parsePollID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.UpdatePollRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	startDate, err := parsePollDate(input.StartDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	endDate, err := parsePollDate(input.EndDate)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	options := make([]domain.Option, len(input.Options))
	for i, opt := range input.Options {
		options[i] = domain.Option{
			OptionID: opt.OptionID,
			Label:    opt.Label,
		}
	}

	update := domain.Poll{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    input.IsActive,
		Options:     options,
	}

	updated, err := h.svc.UpdatePoll(ctx.Request.Context(), pollID, user, update)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPollNotFound):
			response.RenderErr(ctx, response.ErrNotFound("poll", "ID", pollID))
		case errors.Is(err, service.ErrNotPollOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("HandleUpdatePoll -> h.svc.UpdatePoll -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleListPolls godoc
// @Summary      List polls
// @Tags         polls
// @Produce      json
// @Success      200  {array}   domain.Poll
// @Failure      500  {object}  response.Err
// @Router       /polls [get]
func (h *PollHandler) HandleListPolls(ctx *gin.Context) {
	polls, err := h.svc.ListPolls(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleListPolls -> h.svc.ListPolls -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, polls)
}

// HandleGetPoll godoc
// @Summary      Get a poll with its options
// @Tags         polls
// @Produce      json
// @Param        pollID  path      int  true  "poll ID"
// @Success      200     {object}  domain.Poll
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /polls/{pollID} [get]
func (h *PollHandler) HandleGetPoll(ctx *gin.Context) {
	pollID, respErr := parsePollID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	poll, err := h.svc.GetPoll(ctx.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, service.ErrPollNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("poll", "ID", pollID))
			return
		}

		err = fmt.Errorf("HandleGetPoll -> h.svc.GetPoll -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, poll)
}

// HandleCastVote godoc
// @Summary      Cast or change a vote
// @Description  Each voter holds one ballot per poll; voting again moves it.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        pollID  path      int                      true  "poll ID"
// @Param        input   body      request.CastVoteRequest  true  "chosen option"
// @Success      200     {object}  response.VoteResponse
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      409     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /polls/{pollID}/votes [post]
// @Security BearerAuth
func (h *PollHandler) HandleCastVote(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	pollID, respErr := parsePollID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CastVoteRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	outcome, err := h.svc.CastVote(ctx.Request.Context(), pollID, user.ID, input.OptionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPollNotFound):
			response.RenderErr(ctx, response.ErrNotFound("poll", "ID", pollID))
		case errors.Is(err, service.ErrPollInactive):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrUnknownOption):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("HandleCastVote -> h.svc.CastVote -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.VoteResponse{
		Outcome:  outcome,
		OptionID: input.OptionID,
	})
}

// HandleGetTally godoc
// @Summary      Tally ballots per option
// @Tags         polls
// @Produce      json
// @Param        pollID  path      int  true  "poll ID"
// @Success      200     {object}  response.TallyResponse
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /polls/{pollID}/tally [get]
func (h *PollHandler) HandleGetTally(ctx *gin.Context) {
	pollID, respErr := parsePollID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	counts, err := h.svc.Tally(ctx.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, service.ErrPollNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("poll", "ID", pollID))
			return
		}

		err = fmt.Errorf("HandleGetTally -> h.svc.Tally -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.TallyResponse{
		PollID: pollID,
		Counts: counts,
	})
}

// HandleGetMyVote godoc
// @Summary      Get the caller's current ballot on a poll
// @Tags         polls
// @Produce      json
// @Param        pollID  path      int  true  "poll ID"
// @Success      200     {object}  response.VoterChoiceResponse
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /polls/{pollID}/votes/me [get]
// @Security BearerAuth
func (h *PollHandler) HandleGetMyVote(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	pollID, respErr := parsePollID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	optionID, err := h.svc.VoterChoice(ctx.Request.Context(), pollID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrPollNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("poll", "ID", pollID))
			return
		}

		err = fmt.Errorf("HandleGetMyVote -> h.svc.VoterChoice -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.VoterChoiceResponse{
		PollID:   pollID,
		OptionID: optionID,
	})
}
