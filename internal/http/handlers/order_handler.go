package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/dto"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	budget, err := common.ParseAmount(req.Budget)
	if err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.orders.CreateOrder(c.Request.Context(), userID, req.Title, req.Description, budget)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{Data: dto.NewOrderResponse(res.Value), Events: res.Events})
}

// ListMine GET /api/orders/my
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListByClient(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": dto.NewOrderList(orders)})
}

// ListActive GET /api/orders/active
// Для фрилансера исключает собственные заказы и заказы с его откликом.
func (h *OrderHandler) ListActive(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, _ := common.GetPagination(c)
	orders, err := h.orders.ListActiveForFreelancer(c.Request.Context(), userID, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": dto.NewOrderList(orders)})
}

// ListAssigned GET /api/orders/assigned
func (h *OrderHandler) ListAssigned(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListAssigned(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": dto.NewOrderList(orders)})
}

// GetOrder GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

// Respond POST /api/orders/:id/responses
func (h *OrderHandler) Respond(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RespondToOrderRequest
	if c.Request.ContentLength > 0 {
		if err := common.BindAndValidate(c, &req); err != nil {
			common.Fail(c, err)
			return
		}
	}

	res, err := h.orders.RespondToOrder(c.Request.Context(), orderID, userID, req.Message)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{
		Data:   dto.NewOrderResponseItem(res.Value),
		Events: res.Events,
	})
}

// ListResponses GET /api/orders/:id/responses
// Отклики видит только владелец заказа и администратор.
func (h *OrderHandler) ListResponses(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	if role, _ := common.CurrentUserRole(c); !order.IsOwnedBy(userID) && role != service.RoleAdmin {
		common.Fail(c, apperror.ErrNotOrderOwner)
		return
	}

	responses, err := h.orders.ListResponses(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": dto.NewOrderResponseItems(responses)})
}

// ListMyResponses GET /api/responses/my
func (h *OrderHandler) ListMyResponses(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	responses, err := h.orders.ListFreelancerResponses(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": dto.NewOrderResponseItems(responses)})
}

// SelectFreelancer POST /api/orders/:id/select
func (h *OrderHandler) SelectFreelancer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SelectFreelancerRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.orders.SelectFreelancer(c.Request.Context(), orderID, userID, req.FreelancerID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Data: dto.NewOrderResponse(res.Value), Events: res.Events})
}

// ConfirmCompletion POST /api/orders/:id/confirm
func (h *OrderHandler) ConfirmCompletion(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	res, err := h.orders.ConfirmCompletion(c.Request.Context(), orderID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Data: dto.NewOrderResponse(res.Value), Events: res.Events})
}
