package api

// CreateLogReq 直接增减/盘点
type CreateLogReq struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Action   string `json:"action" binding:"required,oneof=add reduce set"`
	Quantity string `json:"quantity" binding:"required"` // 必须传字符串
	Comment  string `json:"comment"`
	User     string `json:"user"`
}

// CreateItemReq 新建物品
type CreateItemReq struct {
	Name          string `json:"name" binding:"required"`
	GroupID       int64  `json:"group_id"`
	Quantity      string `json:"quantity"`
	MinStock      string `json:"min_stock"`
	Units         string `json:"units"`
	IsRequirement bool   `json:"is_requirement"`
}

// UpdateItemReq 物品元数据编辑
type UpdateItemReq struct {
	Name     string `json:"name"`
	GroupID  int64  `json:"group_id"`
	MinStock string `json:"min_stock"`
	Units    string `json:"units"`
	Version  int64  `json:"version" binding:"required"` // 乐观锁版本
}

// CreateTransferReq 发起调拨
type CreateTransferReq struct {
	Type        string            `json:"type" binding:"required,oneof=in out"`
	Source      string            `json:"source" binding:"required"`
	Destination string            `json:"destination" binding:"required"`
	Notes       string            `json:"notes"`
	User        string            `json:"user"`
	Items       []TransferItemReq `json:"items" binding:"required,min=1"`
}

type TransferItemReq struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

// UpdateTransferReq 状态机推进 (approve / reject / complete)
type UpdateTransferReq struct {
	Status string `json:"status" binding:"required,oneof=completed approved rejected"`
	Reason string `json:"reason"` // rejected 时必填，service 层校验
}
