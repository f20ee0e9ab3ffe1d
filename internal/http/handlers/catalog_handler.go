package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/dto"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// CatalogHandler обслуживает каталог готовых услуг и заказы по ним.
type CatalogHandler struct {
	catalog *service.CatalogService
	orders  *service.OrderService
}

func NewCatalogHandler(catalog *service.CatalogService, orders *service.OrderService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, orders: orders}
}

// List GET /api/services?category=
func (h *CatalogHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	listings, err := h.catalog.ListByCategory(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": dto.NewServiceList(listings)})
}

// ListMine GET /api/services/my
func (h *CatalogHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	listings, err := h.catalog.ListByFreelancer(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": dto.NewServiceList(listings)})
}

// Get GET /api/services/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	serviceID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.catalog.Get(c.Request.Context(), serviceID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewServiceResponse(listing))
}

// Create POST /api/services
func (h *CatalogHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateServiceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	price, err := common.ParseAmount(req.Price)
	if err != nil {
		common.Fail(c, err)
		return
	}

	listing, err := h.catalog.Create(c.Request.Context(), userID, req.Title, req.Description, req.Category, price)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewServiceResponse(listing))
}

// Delete DELETE /api/services/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	serviceID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), serviceID, userID); err != nil {
		common.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PlaceOrder POST /api/services/:id/order
func (h *CatalogHandler) PlaceOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	serviceID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	res, err := h.orders.PlaceServiceOrder(c.Request.Context(), userID, serviceID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ActionResponse{Data: dto.NewOrderResponse(res.Value), Events: res.Events})
}
