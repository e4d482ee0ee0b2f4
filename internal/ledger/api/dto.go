package api

import "time"

// CreateTransactionReq 对应前端发来的 JSON
type CreateTransactionReq struct {
	Type      string    `json:"type" binding:"required,oneof=income expense"`
	Amount    string    `json:"amount" binding:"required"` // 必须传字符串
	Date      time.Time `json:"date" binding:"required"`
	Method    string    `json:"method" binding:"required"` // 账户名称
	Category  string    `json:"category"`
	IsFlagged bool      `json:"is_flagged"`
	RiskLevel string    `json:"risk_level" binding:"omitempty,oneof=low medium high"`
}

// UpdateTransactionReq 流水修正（金额/分类/日期）
type UpdateTransactionReq struct {
	Amount   string    `json:"amount"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

// DeleteTransactionReq 软删除必须带原因
type DeleteTransactionReq struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateAccountReq 新建账户
type CreateAccountReq struct {
	Name           string `json:"name" binding:"required"`
	Group          string `json:"group"`
	Type           string `json:"type" binding:"required,oneof=asset liability"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	OpeningBalance string `json:"opening_balance"`
}

// UpdateAccountReq 账户编辑（只开放 name/group）
type UpdateAccountReq struct {
	Name    string `json:"name"`
	Group   string `json:"group"`
	Version int64  `json:"version" binding:"required"` // 乐观锁版本，读取时返回给前端
}
