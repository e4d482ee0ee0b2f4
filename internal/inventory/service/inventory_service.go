package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/inventory/domain"
	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
)

// LogRequest 直接增减/盘点请求的 DTO (Input)
type LogRequest struct {
	ItemID   int64
	Action   string // add | reduce | set
	Quantity string // 传字符串防止精度丢失
	Comment  string
	User     string
}

// TransferRequest 发起调拨的请求
type TransferRequest struct {
	Type        string // in | out
	Source      string
	Destination string
	Notes       string
	User        string
	Items       []TransferItemRequest
}

type TransferItemRequest struct {
	ItemID   int64
	Quantity string
}

// InventoryService 库存核心服务
type InventoryService struct {
	db           *gorm.DB // 用于开启事务
	itemRepo     domain.ItemRepository
	logRepo      domain.LogRepository
	transferRepo domain.TransferRepository
	logger       *zap.Logger
}

func NewInventoryService(db *gorm.DB, itemRepo domain.ItemRepository, logRepo domain.LogRepository, transferRepo domain.TransferRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		db:           db,
		itemRepo:     itemRepo,
		logRepo:      logRepo,
		transferRepo: transferRepo,
		logger:       logger,
	}
}

// newTransferRef 生成调拨业务单号
func newTransferRef() string {
	return "TRF-" + uuid.NewString()[:8]
}

// AddInventoryLog 直接增减/盘点 (ACID Transaction Script)
// 数量调整和日志追加必须在同一个事务里落库：改了量没日志是审计事故
func (s *InventoryService) AddInventoryLog(ctx context.Context, req LogRequest) (*domain.InventoryLog, error) {
	action := domain.LogAction(req.Action)
	if action != domain.ActionAdd && action != domain.ActionReduce && action != domain.ActionSet {
		return nil, apperr.New(apperr.Validation, "invalid log action: %s", req.Action)
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid quantity format: %s", req.Quantity)
	}
	if action != domain.ActionSet && qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "quantity must be positive")
	}
	if action == domain.ActionSet && qty.IsNegative() {
		return nil, apperr.New(apperr.Validation, "quantity must not be negative")
	}

	var entry *domain.InventoryLog

	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.FindByIDTx(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}

		var newQty decimal.Decimal
		// 正常动作的 QuantityChange 写正数（幅度），方向由 Action 表达；
		// set 例外：写 新值−旧值 的带符号差
		change := qty
		switch action {
		case domain.ActionAdd:
			newQty = item.Quantity.Add(qty)
		case domain.ActionReduce:
			newQty = item.Quantity.Sub(qty)
			if newQty.IsNegative() {
				return apperr.New(apperr.Validation,
					"cannot reduce %q below zero (have %s, reduce %s)", item.Name, item.Quantity, qty)
			}
		case domain.ActionSet:
			newQty = qty
			change = qty.Sub(item.Quantity)
		}

		if err := s.itemRepo.UpdateQuantity(ctx, tx, item.ID, newQty.String(), item.Version); err != nil {
			return err
		}

		entry = &domain.InventoryLog{
			ItemID:         item.ID,
			ItemName:       item.Name,
			Action:         action,
			Source:         domain.SourceDirect,
			QuantityChange: change,
			NewQuantity:    newQty,
			Comment:        req.Comment,
			Date:           time.Now(),
			User:           req.User,
		}
		return s.logRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CreateItem 新建物品
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	if item.Name == "" {
		return apperr.New(apperr.Validation, "item name is required")
	}
	item.Version = 1
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.itemRepo.Create(ctx, tx, item)
	})
}

// UpdateInventoryItem 编辑物品元数据（名称/分组/最低库存/单位），乐观锁保护
func (s *InventoryService) UpdateInventoryItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if _, err := s.itemRepo.FindByID(ctx, item.ID); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.itemRepo.UpdateMeta(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.itemRepo.FindByID(ctx, item.ID)
}

// AddInventoryTransfer 发起调拨 (ACID Transaction Script)
// 库存增减在创建时就发生，每个明细行恰好产生一条日志；
// 之后的 approve 只是审计确认，不再有库存副作用
func (s *InventoryService) AddInventoryTransfer(ctx context.Context, req TransferRequest) (*domain.InventoryTransfer, error) {
	ttype := domain.TransferType(req.Type)
	if !ttype.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid transfer type: %s", req.Type)
	}
	if req.Source == "" || req.Destination == "" {
		return nil, apperr.New(apperr.Validation, "source and destination are required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.Validation, "transfer must have at least 1 item")
	}

	// 先解析全部数量，快速失败
	quantities := make([]decimal.Decimal, len(req.Items))
	for i, it := range req.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid quantity format: %s", it.Quantity)
		}
		if qty.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.New(apperr.Validation, "quantity must be positive")
		}
		quantities[i] = qty
	}

	transfer := &domain.InventoryTransfer{
		Ref:         newTransferRef(),
		Type:        ttype,
		Source:      req.Source,
		Destination: req.Destination,
		Status:      domain.StatusInTransit,
		Notes:       req.Notes,
		Date:        time.Now(),
		Version:     1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, it := range req.Items {
			item, err := s.itemRepo.FindByIDTx(ctx, tx, it.ItemID)
			if err != nil {
				return err
			}
			qty := quantities[i]

			var newQty decimal.Decimal
			var action domain.LogAction
			var source domain.LogSource
			var comment string

			if ttype == domain.TransferOut {
				newQty = item.Quantity.Sub(qty)
				if newQty.IsNegative() {
					return apperr.New(apperr.Validation,
						"insufficient stock of %q (have %s, transfer %s)", item.Name, item.Quantity, qty)
				}
				action = domain.ActionTransferOut
				source = domain.SourceTransferOut
				comment = fmt.Sprintf("transfer out to %s (%s)", req.Destination, transfer.Ref)
			} else {
				newQty = item.Quantity.Add(qty)
				action = domain.ActionTransferIn
				source = domain.SourceTransferIn
				comment = fmt.Sprintf("transfer in from %s (%s)", req.Source, transfer.Ref)
			}

			if err := s.itemRepo.UpdateQuantity(ctx, tx, item.ID, newQty.String(), item.Version); err != nil {
				return err
			}

			entry := &domain.InventoryLog{
				ItemID:         item.ID,
				ItemName:       item.Name,
				Action:         action,
				Source:         source,
				QuantityChange: qty, // 正数幅度，桶算法据此累计
				NewQuantity:    newQty,
				Comment:        comment,
				Date:           transfer.Date,
				User:           req.User,
			}
			if err := s.logRepo.Append(ctx, tx, entry); err != nil {
				return err
			}

			transfer.Items = append(transfer.Items, domain.TransferItem{
				ItemID:   item.ID,
				Name:     item.Name,
				Quantity: qty,
			})
		}

		return s.transferRepo.Create(ctx, tx, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.String("ref", transfer.Ref),
		zap.String("type", string(transfer.Type)),
		zap.Int("items", len(transfer.Items)))
	return transfer, nil
}

// UpdateInventoryTransfer 推进调拨状态机 (approve / reject / complete 统一入口)
// 非法转换在这里集中拒绝；终态不允许任何转出
func (s *InventoryService) UpdateInventoryTransfer(ctx context.Context, id int64, status string, reason string) (*domain.InventoryTransfer, error) {
	target := domain.TransferStatus(status)
	if !target.IsValid() {
		return nil, apperr.New(apperr.Validation, "invalid transfer status: %s", status)
	}

	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(transfer.Status, target) {
		return nil, apperr.New(apperr.PreconditionFailed,
			"transfer %s cannot move from %s to %s", transfer.Ref, transfer.Status, target)
	}

	if target == domain.StatusRejected {
		if reason == "" {
			return nil, apperr.New(apperr.Validation, "rejection reason is required")
		}
		return s.rejectTransfer(ctx, transfer, reason)
	}

	// completed / approved 没有库存副作用，approve 只是审计确认
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.transferRepo.UpdateStatus(ctx, tx, transfer.ID, target, "", transfer.Version)
	})
	if err != nil {
		return nil, err
	}
	return s.transferRepo.FindByID(ctx, id)
}

// rejectTransfer 拒绝调拨 (The Big Transaction)
// 三步必须原子完成，部分冲正（状态翻了但没有补偿调拨）是这个组件要防住的最坏故障：
//  1. 置 status=rejected 并记录原因（乐观锁保护，双重拒绝到不了这里也写不进去）
//  2. 生成方向取反、源目的对调的冲正调拨，Notes 引用原单
//  3. 每个明细行恰好补一条日志，把可用量折算精确还原：
//     原单 out → 库存加回 +q，日志 action=reduce、QuantityChange=−q（缩 used 桶，不是涨 transferIns 桶）
//     原单 in  → 库存扣回 −q（最低到 0），日志 action=add、QuantityChange=−q（缩 transferIns 桶）
func (s *InventoryService) rejectTransfer(ctx context.Context, transfer *domain.InventoryTransfer, reason string) (*domain.InventoryTransfer, error) {
	now := time.Now()
	reversal := &domain.InventoryTransfer{
		Ref:         newTransferRef(),
		Type:        transfer.Type.Flip(),
		Source:      transfer.Destination,
		Destination: transfer.Source,
		Status:      domain.StatusInTransit,
		Notes:       fmt.Sprintf("auto reversal of %s (id %d): %s", transfer.Ref, transfer.ID, reason),
		Date:        now,
		Version:     1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. 状态翻转
		if err := s.transferRepo.UpdateStatus(ctx, tx, transfer.ID, domain.StatusRejected, reason, transfer.Version); err != nil {
			return err
		}

		// 2. 冲正单（明细行与原单一致）
		for _, it := range transfer.Items {
			reversal.Items = append(reversal.Items, domain.TransferItem{
				ItemID:   it.ItemID,
				Name:     it.Name,
				Quantity: it.Quantity,
			})
		}
		if err := s.transferRepo.Create(ctx, tx, reversal); err != nil {
			return err
		}

		// 3. 逐明细补偿。任何一行失败（比如物品已不存在）整个拒绝回滚
		for _, it := range transfer.Items {
			item, err := s.itemRepo.FindByIDTx(ctx, tx, it.ItemID)
			if err != nil {
				return err
			}

			var newQty decimal.Decimal
			var action domain.LogAction

			if transfer.Type == domain.TransferOut {
				newQty = item.Quantity.Add(it.Quantity)
				action = domain.ActionReduce
			} else {
				newQty = item.Quantity.Sub(it.Quantity)
				if newQty.IsNegative() {
					newQty = decimal.Zero
				}
				action = domain.ActionAdd
			}

			if err := s.itemRepo.UpdateQuantity(ctx, tx, item.ID, newQty.String(), item.Version); err != nil {
				return err
			}

			entry := &domain.InventoryLog{
				ItemID:         item.ID,
				ItemName:       item.Name,
				Action:         action,
				Source:         domain.SourceDirect,
				QuantityChange: it.Quantity.Neg(), // 负数：把对应桶缩回去
				NewQuantity:    newQty,
				Comment:        fmt.Sprintf("reversal of rejected %s: %s", transfer.Ref, reason),
				Date:           now,
				User:           "system",
			}
			if err := s.logRepo.Append(ctx, tx, entry); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer rejected with reversal",
		zap.String("ref", transfer.Ref),
		zap.String("reversal_ref", reversal.Ref),
		zap.String("reason", reason))
	return s.transferRepo.FindByID(ctx, transfer.ID)
}

// ItemAvailability 读取路径："需求清单"物品的可用量每次基于全量日志重算
// brought 由调用方聚合（学生申报的实物携带合计），核心不持有学生数据
func (s *InventoryService) ItemAvailability(ctx context.Context, itemID int64, brought string) (*domain.InventoryItem, Availability, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, Availability{}, err
	}

	b := decimal.Zero
	if brought != "" {
		b, err = decimal.NewFromString(brought)
		if err != nil {
			return nil, Availability{}, apperr.New(apperr.Validation, "invalid brought amount: %s", brought)
		}
	}

	logs, err := s.logRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, Availability{}, err
	}

	return item, ResolveRequirementAvailability(b, logs), nil
}

// ListItems 查询全部物品
func (s *InventoryService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.itemRepo.List(ctx)
}

// ListTransfers 查询全部调拨单
func (s *InventoryService) ListTransfers(ctx context.Context) ([]domain.InventoryTransfer, error) {
	return s.transferRepo.List(ctx)
}

// ItemLogs 查询物品流水
func (s *InventoryService) ItemLogs(ctx context.Context, itemID int64) ([]domain.InventoryLog, error) {
	return s.logRepo.ListByItem(ctx, itemID)
}

// ItemLogsByName 按物品名称查询流水（"需求清单"按名称对齐学生携带数据）
func (s *InventoryService) ItemLogsByName(ctx context.Context, name string) ([]domain.InventoryLog, error) {
	if name == "" {
		return nil, apperr.New(apperr.Validation, "item name is required")
	}
	return s.logRepo.ListByItemName(ctx, name)
}
