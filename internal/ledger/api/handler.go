package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxz807/eduledger/backend/internal/ledger/service"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

type FinanceHandler struct {
	svc *service.FinanceService
}

func NewFinanceHandler(svc *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *FinanceHandler) RegisterRoutes(r *gin.RouterGroup) {
	fin := r.Group("/finance")
	{
		fin.GET("/accounts", h.ListAccounts)
		fin.POST("/accounts", h.CreateAccount)
		fin.PUT("/accounts/:id", h.UpdateAccount)
		fin.DELETE("/accounts/:id", h.DeleteAccount)
		fin.GET("/accounts/:id/balance", h.AccountBalance)

		fin.GET("/transactions", h.ListTransactions)
		fin.GET("/transactions/deleted", h.ListDeletedTransactions)
		fin.POST("/transactions", h.CreateTransaction)
		fin.PUT("/transactions/:id", h.UpdateTransaction)
		fin.DELETE("/transactions/:id", h.DeleteTransaction)
		fin.POST("/transactions/:id/restore", h.RestoreTransaction)
	}
}

// abortWithError 根据错误类别映射 HTTP 状态码
// 409 = 乐观锁冲突, 422 = 状态机前置条件不满足, 404 = 引用不存在, 400 = 校验失败
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

// CreateTransaction 记账接口
// POST /api/v1/finance/transactions
func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionReq

	// 1. 参数绑定与基础校验
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// 2. DTO 转换 (API Layer -> Service Layer)
	svcReq := service.TransactionRequest{
		Type:      req.Type,
		Amount:    req.Amount,
		Date:      req.Date,
		Method:    req.Method,
		Category:  req.Category,
		IsFlagged: req.IsFlagged,
		RiskLevel: req.RiskLevel,
	}

	// 3. 调用业务逻辑
	txn, err := h.svc.AddTransaction(c.Request.Context(), svcReq)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

func (h *FinanceHandler) UpdateTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	txn, err := h.svc.UpdateTransaction(c.Request.Context(), id, req.Amount, req.Category, req.Date)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req DeleteTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.svc.DeleteTransaction(c.Request.Context(), id, req.Reason); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction moved to deleted list"})
}

func (h *FinanceHandler) RestoreTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	txn, err := h.svc.RestoreTransaction(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	txns, err := h.svc.ListTransactions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *FinanceHandler) ListDeletedTransactions(c *gin.Context) {
	txns, err := h.svc.ListDeletedTransactions(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *FinanceHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	acc, err := h.svc.AddAccount(c.Request.Context(), service.AccountRequest{
		Name:           req.Name,
		Group:          req.Group,
		Type:           req.Type,
		Currency:       req.Currency,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (h *FinanceHandler) UpdateAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	acc, err := h.svc.UpdateAccount(c.Request.Context(), id, req.Name, req.Group, req.Version)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *FinanceHandler) DeleteAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *FinanceHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.svc.ListAccounts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// AccountBalance 余额查询接口
// 余额永远是派生值：基于期初 + 全量流水即时折算，前端不得本地累加
func (h *FinanceHandler) AccountBalance(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	account, balance, err := h.svc.AccountBalance(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": account.ID,
		"name":       account.Name,
		"type":       account.Type,
		"currency":   account.Currency,
		"balance":    balance,
	})
}
