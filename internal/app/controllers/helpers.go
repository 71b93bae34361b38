package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models/dto"
	"github.com/destinpq/destinpq-lms-sub000/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes a
// 400 and returns false.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label+" ID").
			WithField(name).
			WithDetails(label + " ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// currentUserID returns the authenticated user id or writes a 401.
func currentUserID(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("User ID not found in request context")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return userID, true
}

// bindJSON binds the body into req or writes a 400 with field details.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}

// queryBool parses an optional boolean query parameter.
func queryBool(ctx *gin.Context, name string) (*bool, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameter").
			WithField(name).
			WithDetails(name + " must be true or false")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return &v, true
}

// queryID parses an optional positive id query parameter.
func queryID(ctx *gin.Context, name string) (*int64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameter").
			WithField(name).
			WithDetails(name + " must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return &v, true
}

// membershipOp adds or removes userID on the roster of the owner (course,
// workshop or achievement) identified by ownerID.
type membershipOp func(ctx context.Context, ownerID, userID int64) (*dto.MembershipResponse, error)

// selfMembership applies op to the caller on the owner named by the "id" path parameter.
func selfMembership(ctx *gin.Context, label string, op membershipOp) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	ownerID, ok := parseIDParam(ctx, "id", label)
	if !ok {
		return
	}
	respondMembership(ctx, op, ownerID, userID)
}

// addMember applies op to the {userId} body on the owner named by the "id" path parameter.
func addMember(ctx *gin.Context, label string, op membershipOp) {
	ownerID, ok := parseIDParam(ctx, "id", label)
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindJSON(ctx, &req) {
		return
	}
	respondMembership(ctx, op, ownerID, req.UserID)
}

// removeMember applies op to the "userId" path parameter.
func removeMember(ctx *gin.Context, label string, op membershipOp) {
	ownerID, ok := parseIDParam(ctx, "id", label)
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "userId", "User")
	if !ok {
		return
	}
	respondMembership(ctx, op, ownerID, userID)
}

func respondMembership(ctx *gin.Context, op membershipOp, ownerID, userID int64) {
	result, err := op(ctx.Request.Context(), ownerID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	msg := "No change"
	if result.Changed {
		msg = "Membership updated"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, msg))
}
