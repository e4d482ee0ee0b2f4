package api

import "time"

// CreatePeriodReq 新建预算期
type CreatePeriodReq struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// UpdatePeriodReq 预算期元数据编辑
type UpdatePeriodReq struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Version   int64     `json:"version" binding:"required"` // 乐观锁版本
}

// LimitReq 新建/调整限额
type LimitReq struct {
	Kind          string           `json:"kind" binding:"required,oneof=expense income"`
	Category      string           `json:"category" binding:"required"`
	BaseAmount    string           `json:"base_amount"` // 必须传字符串
	Subcategories []SubcategoryReq `json:"subcategories"`
}

type SubcategoryReq struct {
	Name   string `json:"name" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}
