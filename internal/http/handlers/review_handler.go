package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/dto"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AddReviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.reviews.AddReview(c.Request.Context(), req.OrderID, userID, req.ReviewedID, req.Rating, req.Comment)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{Data: dto.NewReviewResponse(res.Value), Events: res.Events})
}

// CanReview GET /api/reviews/can?order_id=&reviewed_id=
func (h *ReviewHandler) CanReview(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err1 := strconv.ParseInt(c.Query("order_id"), 10, 64)
	reviewedID, err2 := strconv.ParseInt(c.Query("reviewed_id"), 10, 64)
	if err1 != nil || err2 != nil {
		common.RespondBadRequest(c, "order_id и reviewed_id обязательны")
		return
	}

	ok, err := h.reviews.CanReview(c.Request.Context(), orderID, userID, reviewedID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_review": ok})
}

// ListForUser GET /api/users/:id/reviews
func (h *ReviewHandler) ListForUser(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	reviews, err := h.reviews.ListUserReviews(ctx, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	avg, count, err := h.reviews.AverageRating(ctx, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": dto.NewReviewList(reviews),
		"rating":  dto.RatingResponse{UserID: userID, Average: avg, Count: count},
	})
}

// Rating GET /api/users/:id/rating
func (h *ReviewHandler) Rating(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	avg, count, err := h.reviews.AverageRating(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RatingResponse{UserID: userID, Average: avg, Count: count})
}
