package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/dto"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// AdminHandler - вход администратора, модерация заказов услуг и статистика.
type AdminHandler struct {
	auth   *service.AuthService
	orders *service.OrderService
	stats  *service.StatsService
}

func NewAdminHandler(auth *service.AuthService, orders *service.OrderService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{auth: auth, orders: orders, stats: stats}
}

// Login POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	token, err := h.auth.AdminLogin(c.Request.Context(), req.AdminID, req.Password)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// ListAwaiting GET /api/admin/orders/awaiting
func (h *AdminHandler) ListAwaiting(c *gin.Context) {
	limit, _ := common.GetPagination(c)
	orders, err := h.orders.ListAwaitingAdmin(c.Request.Context(), limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": dto.NewOrderList(orders)})
}

// ConfirmOrder POST /api/admin/orders/:id/confirm
func (h *AdminHandler) ConfirmOrder(c *gin.Context) {
	h.decide(c, h.orders.AdminConfirmOrder)
}

// RejectOrder POST /api/admin/orders/:id/reject
func (h *AdminHandler) RejectOrder(c *gin.Context) {
	h.decide(c, h.orders.AdminRejectOrder)
}

// Stats GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type adminOrderAction func(ctx context.Context, orderID, adminID int64) (*service.Result[*entity.Order], error)

func (h *AdminHandler) decide(c *gin.Context, action adminOrderAction) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	res, err := action(c.Request.Context(), orderID, adminID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Data: dto.NewOrderResponse(res.Value), Events: res.Events})
}
