package api

// CreateRequisitionReq 对应前端发来的 JSON
type CreateRequisitionReq struct {
	Title   string    `json:"title" binding:"required"`
	Account string    `json:"account"`
	Notes   string    `json:"notes"`
	Items   []ItemReq `json:"items"`
}

type ItemReq struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category"`
	Quantity   string `json:"quantity" binding:"required"`   // 必须传字符串
	UnitPrice  string `json:"unit_price" binding:"required"` // 必须传字符串
	IsPriority bool   `json:"is_priority"`
	IsManual   bool   `json:"is_manual"`
}

// UpdateRequisitionReq 标题/账户/备注编辑
type UpdateRequisitionReq struct {
	Title   string `json:"title"`
	Account string `json:"account"`
	Notes   string `json:"notes"`
}

// SubmitReq 草稿提交
type SubmitReq struct {
	Status string `json:"status" binding:"required,oneof=submitted pending-approval"`
}

// RejectReq 驳回必须带原因
type RejectReq struct {
	Reason string `json:"reason" binding:"required"`
}
