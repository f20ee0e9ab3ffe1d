package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/dto"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

type EscrowRequestHandler struct {
	requests *service.EscrowRequestService
}

func NewEscrowRequestHandler(requests *service.EscrowRequestService) *EscrowRequestHandler {
	return &EscrowRequestHandler{requests: requests}
}

// Withdraw POST /api/requests/withdraw
func (h *EscrowRequestHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.WithdrawalRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.requests.RequestWithdrawal(c.Request.Context(), userID, amount, req.Phone)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{Data: dto.NewEscrowRequestResponse(res.Value), Events: res.Events})
}

// Topup POST /api/requests/topup
func (h *EscrowRequestHandler) Topup(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.TopupRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.requests.RequestTopup(c.Request.Context(), userID, amount)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{Data: dto.NewEscrowRequestResponse(res.Value), Events: res.Events})
}

// ListMine GET /api/requests/my
func (h *EscrowRequestHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, _ := common.GetPagination(c)
	requests, err := h.requests.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": dto.NewEscrowRequestList(requests)})
}

// ListPending GET /api/admin/requests
func (h *EscrowRequestHandler) ListPending(c *gin.Context) {
	limit, _ := common.GetPagination(c)
	requests, err := h.requests.ListPending(c.Request.Context(), limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": dto.NewEscrowRequestList(requests)})
}

// Resolve POST /api/admin/requests/:id/resolve
func (h *EscrowRequestHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	requestID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	decision, err := valueobject.NewDecision(req.Decision)
	if err != nil {
		common.Fail(c, err)
		return
	}

	res, err := h.requests.Resolve(c.Request.Context(), requestID, adminID, decision)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Data: dto.NewEscrowRequestResponse(res.Value), Events: res.Events})
}
