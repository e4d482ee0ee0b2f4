package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xxz807/eduledger/backend/internal/inventory/domain"
	"github.com/xxz807/eduledger/backend/internal/inventory/service"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *InventoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	inv := r.Group("/inventory")
	{
		inv.GET("/items", h.ListItems)
		inv.POST("/items", h.CreateItem)
		inv.PUT("/items/:id", h.UpdateItem)
		inv.GET("/items/:id/logs", h.ItemLogs)
		inv.GET("/items/:id/availability", h.ItemAvailability)

		inv.GET("/logs", h.ListLogsByName)
		inv.POST("/logs", h.CreateLog)

		inv.GET("/transfers", h.ListTransfers)
		inv.POST("/transfers", h.CreateTransfer)
		inv.PUT("/transfers/:id", h.UpdateTransfer)
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id: " + c.Param("id")})
		return 0, false
	}
	return id, true
}

func (h *InventoryHandler) CreateLog(c *gin.Context) {
	var req CreateLogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entry, err := h.svc.AddInventoryLog(c.Request.Context(), service.LogRequest{
		ItemID:   req.ItemID,
		Action:   req.Action,
		Quantity: req.Quantity,
		Comment:  req.Comment,
		User:     req.User,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListLogsByName 按物品名称查询流水
// GET /api/v1/inventory/logs?item_name=Mattress
func (h *InventoryHandler) ListLogsByName(c *gin.Context) {
	logs, err := h.svc.ItemLogsByName(c.Request.Context(), c.Query("item_name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req CreateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	item := &domain.InventoryItem{
		Name:          req.Name,
		GroupID:       req.GroupID,
		Units:         req.Units,
		IsRequirement: req.IsRequirement,
	}
	if req.Quantity != "" {
		qty, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity: " + req.Quantity})
			return
		}
		item.Quantity = qty
	}
	if req.MinStock != "" {
		ms, err := decimal.NewFromString(req.MinStock)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_stock: " + req.MinStock})
			return
		}
		item.MinStock = ms
	}

	if err := h.svc.CreateItem(c.Request.Context(), item); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	item := &domain.InventoryItem{
		ID:      id,
		Name:    req.Name,
		GroupID: req.GroupID,
		Units:   req.Units,
		Version: req.Version,
	}
	if req.MinStock != "" {
		ms, err := decimal.NewFromString(req.MinStock)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_stock: " + req.MinStock})
			return
		}
		item.MinStock = ms
	}

	updated, err := h.svc.UpdateInventoryItem(c.Request.Context(), item)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) ItemLogs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	logs, err := h.svc.ItemLogs(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// ItemAvailability 可用量查询接口
// GET /api/v1/inventory/items/:id/availability?brought=10
// brought 是外部聚合（关联学生的实物申报合计），由调用方传入
func (h *InventoryHandler) ItemAvailability(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, avail, err := h.svc.ItemAvailability(c.Request.Context(), id, c.Query("brought"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":      item.ID,
		"name":         item.Name,
		"brought":      avail.Brought,
		"transfer_ins": avail.TransferIns,
		"used":         avail.Used,
		"available":    avail.Available,
	})
}

func (h *InventoryHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	svcReq := service.TransferRequest{
		Type:        req.Type,
		Source:      req.Source,
		Destination: req.Destination,
		Notes:       req.Notes,
		User:        req.User,
		Items:       make([]service.TransferItemRequest, len(req.Items)),
	}
	for i, it := range req.Items {
		svcReq.Items[i] = service.TransferItemRequest{ItemID: it.ItemID, Quantity: it.Quantity}
	}

	transfer, err := h.svc.AddInventoryTransfer(c.Request.Context(), svcReq)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

// UpdateTransfer 状态机推进接口 (approve / reject / complete)
// PUT /api/v1/inventory/transfers/:id
func (h *InventoryHandler) UpdateTransfer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	transfer, err := h.svc.UpdateInventoryTransfer(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *InventoryHandler) ListTransfers(c *gin.Context) {
	transfers, err := h.svc.ListTransfers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfers)
}
