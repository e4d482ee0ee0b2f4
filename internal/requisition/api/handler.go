package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
	"github.com/xxz807/eduledger/backend/internal/requisition/service"
)

type RequisitionHandler struct {
	svc *service.RequisitionService
}

func NewRequisitionHandler(svc *service.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *RequisitionHandler) RegisterRoutes(r *gin.RouterGroup) {
	req := r.Group("/requisitions")
	{
		req.GET("", h.List)
		req.POST("", h.Create)
		req.GET("/queue", h.ListQueue)
		req.GET("/:id", h.Find)
		req.PUT("/:id", h.Update)
		req.DELETE("/:id", h.Delete)
		req.POST("/:id/submit", h.Submit)
		req.POST("/:id/approve", h.Approve)
		req.POST("/:id/reject", h.Reject)
		req.POST("/:id/items", h.AddItem)
		req.DELETE("/:id/items/:itemID", h.RemoveItem)
		req.GET("/:id/grouped", h.Grouped)
		req.GET("/:id/snapshot", h.Snapshot)
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

func parseParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + c.Param(name)})
		return 0, false
	}
	return id, true
}

func (h *RequisitionHandler) Create(c *gin.Context) {
	var req CreateRequisitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// DTO 转换 (API Layer -> Service Layer)
	svcReq := service.RequisitionRequest{
		Title:   req.Title,
		Account: req.Account,
		Notes:   req.Notes,
		Items:   make([]service.ItemRequest, len(req.Items)),
	}
	for i, it := range req.Items {
		svcReq.Items[i] = service.ItemRequest{
			Name:       it.Name,
			Category:   it.Category,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			IsPriority: it.IsPriority,
			IsManual:   it.IsManual,
		}
	}

	entity, err := h.svc.AddRequisition(c.Request.Context(), svcReq)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entity)
}

func (h *RequisitionHandler) Update(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRequisitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entity, err := h.svc.UpdateRequisition(c.Request.Context(), id, req.Title, req.Account, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) Submit(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req SubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entity, err := h.svc.SubmitRequisition(c.Request.Context(), id, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// Approve 审批通过接口
// POST /api/v1/requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	entity, err := h.svc.ApproveRequisition(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) Reject(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req RejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entity, err := h.svc.RejectRequisition(c.Request.Context(), id, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) AddItem(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req ItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entity, err := h.svc.AddItem(c.Request.Context(), id, service.ItemRequest{
		Name:       req.Name,
		Category:   req.Category,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		IsPriority: req.IsPriority,
		IsManual:   req.IsManual,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) RemoveItem(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseParam(c, "itemID")
	if !ok {
		return
	}

	entity, err := h.svc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) Delete(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRequisition(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "requisition deleted"})
}

func (h *RequisitionHandler) Find(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	entity, err := h.svc.FindRequisition(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *RequisitionHandler) List(c *gin.Context) {
	entities, err := h.svc.ListRequisitions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entities)
}

func (h *RequisitionHandler) ListQueue(c *gin.Context) {
	items, err := h.svc.ListQueue(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Grouped 分组小计视图（纯读侧，每次重算）
// GET /api/v1/requisitions/:id/grouped
func (h *RequisitionHandler) Grouped(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	entity, groups, err := h.svc.GroupedItems(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requisition_id": entity.ID,
		"ref":            entity.Ref,
		"status":         entity.Status,
		"groups":         groups,
	})
}

// Snapshot 审批冻结快照（jsonb 原样字节返回，逐字节稳定）
func (h *RequisitionHandler) Snapshot(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.svc.QueueSnapshot(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": json.RawMessage("null")})
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot)
}
