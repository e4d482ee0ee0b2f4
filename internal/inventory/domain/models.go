package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem 物品实体
// 对应数据库表: inventory_items
// Quantity 对普通物品是基线存量；对"需求清单"(IsRequirement) 物品，
// 展示用的可用量永远由日志折算（见 service.ResolveRequirementAvailability），不直接读这个字段
type InventoryItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"type:varchar(100);not null;index"`
	GroupID       int64           `gorm:"index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	MinStock      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Units         string          `gorm:"type:varchar(32)"`
	IsRequirement bool            `gorm:"not null;default:false"`
	Version       int64           `gorm:"not null;default:1"` // 乐观锁
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// InventoryLog 库存流水实体（只追加，仓储层不提供更新/删除）
// 对应数据库表: inventory_logs
// 每一次影响数量的动作必须恰好产生一条日志；冲正动作也不例外，
// 冲正行的 QuantityChange 取负值以抵销对应桶的累计（见 availability 的桶算法）
type InventoryLog struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	ItemID         int64           `gorm:"not null;index"`
	ItemName       string          `gorm:"type:varchar(100);not null"`
	Action         LogAction       `gorm:"type:varchar(16);not null"`
	Source         LogSource       `gorm:"type:varchar(16);index"` // 空值 = 历史行，按备注归类
	QuantityChange decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	NewQuantity    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Comment        string          `gorm:"type:text"`
	Date           time.Time       `gorm:"not null;index"`
	User           string          `gorm:"type:varchar(100)"`
	CreatedAt      time.Time
}

func (InventoryLog) TableName() string {
	return "inventory_logs"
}

// InventoryTransfer 调拨单实体
// 对应数据库表: inventory_transfers
// 被拒绝的调拨必须配对一张冲正调拨，冲正单的 Notes 引用原单号
type InventoryTransfer struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	Ref             string         `gorm:"uniqueIndex;type:varchar(64);not null"` // 业务单号
	Type            TransferType   `gorm:"type:varchar(8);not null"`
	Source          string         `gorm:"type:varchar(100);not null"`
	Destination     string         `gorm:"type:varchar(100);not null"`
	Status          TransferStatus `gorm:"type:varchar(16);not null;index"`
	RejectionReason string         `gorm:"type:text"`
	Notes           string         `gorm:"type:text"`
	Date            time.Time      `gorm:"not null"`
	Version         int64          `gorm:"not null;default:1"` // 乐观锁
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// 关联关系 (一对多)
	Items []TransferItem `gorm:"foreignKey:TransferID"`
}

func (InventoryTransfer) TableName() string {
	return "inventory_transfers"
}

// TransferItem 调拨明细行
// 对应数据库表: inventory_transfer_items
type TransferItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	TransferID int64           `gorm:"not null;index"`
	ItemID     int64           `gorm:"not null"`
	Name       string          `gorm:"type:varchar(100);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null"` // 必须 > 0
}

func (TransferItem) TableName() string {
	return "inventory_transfer_items"
}
