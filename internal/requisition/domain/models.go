package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Requisition 请购单实体
// 对应数据库表: requisitions
// QueueSnapshot 是审批瞬间对回收站的一次性冻结拷贝（jsonb 原样字节），
// 进入 approved 之后 Items 和 QueueSnapshot 一律不可再变
type Requisition struct {
	ID            int64             `gorm:"primaryKey;autoIncrement"`
	Ref           string            `gorm:"uniqueIndex;type:varchar(64);not null"` // 业务单号
	Title         string            `gorm:"type:varchar(200);not null"`
	Status        RequisitionStatus `gorm:"type:varchar(24);not null;index"`
	Date          time.Time         `gorm:"not null"`
	Account       string            `gorm:"type:varchar(100)"` // 计划扣款的账户名
	Notes         string            `gorm:"type:text"`
	QueueSnapshot []byte            `gorm:"type:jsonb"` // 审批时写入一次，之后只读
	Version       int64             `gorm:"not null;default:1"` // 乐观锁
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// 关联关系 (一对多)
	Items []RequisitionItem `gorm:"foreignKey:RequisitionID"`
}

func (Requisition) TableName() string {
	return "requisitions"
}

// RequisitionItem 请购行项目
// 对应数据库表: requisition_items
type RequisitionItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	RequisitionID int64           `gorm:"not null;index"`
	Name          string          `gorm:"type:varchar(100);not null"`
	Category      string          `gorm:"type:varchar(100)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null"` // quantity * unit_price
	IsPriority    bool            `gorm:"not null;default:false"`
	IsManual      bool            `gorm:"not null;default:false"`
}

func (RequisitionItem) TableName() string {
	return "requisition_items"
}

// InQueueItem 行项目回收站（审计用，永不真删）
// 对应数据库表: requisition_queue_items
// 审批前从请购单里删掉的行项目进这里；ItemData 是被删行的 jsonb 快照
type InQueueItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	RequisitionID int64     `gorm:"not null;index"`
	ItemData      []byte    `gorm:"type:jsonb;not null"`
	DateRemoved   time.Time `gorm:"not null"`
	CreatedAt     time.Time
}

func (InQueueItem) TableName() string {
	return "requisition_queue_items"
}
