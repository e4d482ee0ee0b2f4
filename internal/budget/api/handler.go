package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxz807/eduledger/backend/internal/budget/domain"
	"github.com/xxz807/eduledger/backend/internal/budget/service"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type BudgetHandler struct {
	svc *service.BudgetService
}

func NewBudgetHandler(svc *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *BudgetHandler) RegisterRoutes(r *gin.RouterGroup) {
	budget := r.Group("/budget")
	{
		budget.GET("/periods", h.ListPeriods)
		budget.POST("/periods", h.CreatePeriod)
		budget.PUT("/periods/:id", h.UpdatePeriod)
		budget.GET("/periods/:id/totals", h.PeriodTotals)
		budget.POST("/periods/:id/limits", h.AddLimit)
		budget.PUT("/periods/:id/limits/:limitID", h.UpdateLimit)
		budget.DELETE("/periods/:id/limits/:limitID", h.RemoveLimit)
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

func (h *BudgetHandler) CreatePeriod(c *gin.Context) {
	var req CreatePeriodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	period, err := h.svc.CreatePeriod(c.Request.Context(), req.Name, req.StartDate, req.EndDate)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, period)
}

func (h *BudgetHandler) UpdatePeriod(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePeriodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	period, err := h.svc.UpdateBudgetPeriod(c.Request.Context(), &domain.BudgetPeriod{
		ID:        id,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Version:   req.Version,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *BudgetHandler) ListPeriods(c *gin.Context) {
	periods, err := h.svc.ListPeriods(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

func (h *BudgetHandler) AddLimit(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	var req LimitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	limit, err := h.svc.AddLimit(c.Request.Context(), toLimitRequest(id, req))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, limit)
}

func (h *BudgetHandler) UpdateLimit(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	limitID, ok := parseParam(c, "limitID")
	if !ok {
		return
	}

	var req LimitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	limit, err := h.svc.UpdateLimit(c.Request.Context(), limitID, toLimitRequest(id, req))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, limit)
}

func (h *BudgetHandler) RemoveLimit(c *gin.Context) {
	if _, ok := parseParam(c, "id"); !ok {
		return
	}
	limitID, ok := parseParam(c, "limitID")
	if !ok {
		return
	}

	if err := h.svc.RemoveLimit(c.Request.Context(), limitID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "limit removed"})
}

// PeriodTotals 限额总览（每次基于当前树重算）
// GET /api/v1/budget/periods/:id/totals?kind=expense
func (h *BudgetHandler) PeriodTotals(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}

	kind := c.DefaultQuery("kind", string(domain.KindExpense))
	limits, total, err := h.svc.PeriodTotals(c.Request.Context(), id, kind)
	if err != nil {
		abortWithError(c, err)
		return
	}

	type limitView struct {
		ID       int64  `json:"id"`
		Category string `json:"category"`
		Total    string `json:"total"`
	}
	views := make([]limitView, len(limits))
	for i := range limits {
		views[i] = limitView{ID: limits[i].ID, Category: limits[i].Category, Total: limits[i].Total().String()}
	}

	c.JSON(http.StatusOK, gin.H{
		"period_id": id,
		"kind":      kind,
		"limits":    views,
		"total":     total.String(),
	})
}

func toLimitRequest(periodID int64, req LimitReq) service.LimitRequest {
	out := service.LimitRequest{
		PeriodID:   periodID,
		Kind:       req.Kind,
		Category:   req.Category,
		BaseAmount: req.BaseAmount,
	}
	for _, sub := range req.Subcategories {
		out.Subcategories = append(out.Subcategories, service.SubcategoryRequest{Name: sub.Name, Amount: sub.Amount})
	}
	return out
}
