package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
	"github.com/xxz807/eduledger/backend/internal/requisition/domain"
)

// RequisitionRequest 创建请购单的 DTO (Input)
type RequisitionRequest struct {
	Title   string
	Account string
	Notes   string
	Items   []ItemRequest
}

type ItemRequest struct {
	Name       string
	Category   string
	Quantity   string // 传字符串防止精度丢失
	UnitPrice  string
	IsPriority bool
	IsManual   bool
}

// snapshotEntry QueueSnapshot 的序列化结构
// 冻结的是回收站记录本身：被删行的数据 + 移出时间
type snapshotEntry struct {
	ItemData    json.RawMessage `json:"item_data"`
	DateRemoved time.Time       `json:"date_removed"`
}

// RequisitionService 请购审批核心服务
type RequisitionService struct {
	db        *gorm.DB // 用于开启事务
	reqRepo   domain.RequisitionRepository
	queueRepo domain.QueueRepository
	logger    *zap.Logger
}

func NewRequisitionService(db *gorm.DB, reqRepo domain.RequisitionRepository, queueRepo domain.QueueRepository, logger *zap.Logger) *RequisitionService {
	return &RequisitionService{
		db:        db,
		reqRepo:   reqRepo,
		queueRepo: queueRepo,
		logger:    logger,
	}
}

func newRequisitionRef() string {
	return "REQ-" + uuid.NewString()[:8]
}

// buildItem 解析并校验一条行项目，Amount = Quantity * UnitPrice
func buildItem(req ItemRequest) (*domain.RequisitionItem, error) {
	if req.Name == "" {
		return nil, apperr.New(apperr.Validation, "item name is required")
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid quantity format: %s", req.Quantity)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "quantity must be positive")
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid unit price format: %s", req.UnitPrice)
	}
	if price.IsNegative() {
		return nil, apperr.New(apperr.Validation, "unit price must not be negative")
	}

	return &domain.RequisitionItem{
		Name:       req.Name,
		Category:   req.Category,
		Quantity:   qty,
		UnitPrice:  price,
		Amount:     qty.Mul(price),
		IsPriority: req.IsPriority,
		IsManual:   req.IsManual,
	}, nil
}

// AddRequisition 新建请购单（初始为草稿）
func (s *RequisitionService) AddRequisition(ctx context.Context, req RequisitionRequest) (*domain.Requisition, error) {
	if req.Title == "" {
		return nil, apperr.New(apperr.Validation, "title is required")
	}

	entity := &domain.Requisition{
		Ref:     newRequisitionRef(),
		Title:   req.Title,
		Status:  domain.StatusDraft,
		Date:    time.Now(),
		Account: req.Account,
		Notes:   req.Notes,
		Version: 1,
	}

	for _, ir := range req.Items {
		item, err := buildItem(ir)
		if err != nil {
			return nil, err
		}
		entity.Items = append(entity.Items, *item)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.Create(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("requisition created", zap.String("ref", entity.Ref), zap.Int("items", len(entity.Items)))
	return entity, nil
}

// UpdateRequisition 编辑标题/账户/备注，终态后拒绝
func (s *RequisitionService) UpdateRequisition(ctx context.Context, id int64, title, account, notes string) (*domain.Requisition, error) {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status.IsTerminal() {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s is %s and cannot be edited", entity.Ref, entity.Status)
	}

	if title != "" {
		entity.Title = title
	}
	if account != "" {
		entity.Account = account
	}
	if notes != "" {
		entity.Notes = notes
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.UpdateMeta(ctx, tx, entity)
	})
	if err != nil {
		return nil, err
	}
	return s.reqRepo.FindByID(ctx, id)
}

// SubmitRequisition 草稿提交进入审批队列
func (s *RequisitionService) SubmitRequisition(ctx context.Context, id int64, target string) (*domain.Requisition, error) {
	status := domain.RequisitionStatus(target)
	if status != domain.StatusSubmitted && status != domain.StatusPendingApproval {
		return nil, apperr.New(apperr.Validation, "invalid submit target: %s", target)
	}

	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(entity.Status, status) {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s cannot move from %s to %s", entity.Ref, entity.Status, status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.UpdateStatus(ctx, tx, id, status, nil, entity.Version)
	})
	if err != nil {
		return nil, err
	}
	return s.reqRepo.FindByID(ctx, id)
}

// AddItem 向未终态的请购单追加行项目
func (s *RequisitionService) AddItem(ctx context.Context, id int64, req ItemRequest) (*domain.Requisition, error) {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status.IsTerminal() {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s is %s; items are frozen", entity.Ref, entity.Status)
	}

	item, err := buildItem(req)
	if err != nil {
		return nil, err
	}
	item.RequisitionID = id

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 先推进主表版本：并发审批拿着旧版本写状态时会吃 Conflict
		if err := s.reqRepo.BumpVersion(ctx, tx, id, entity.Version); err != nil {
			return err
		}
		return s.reqRepo.AddItem(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.reqRepo.FindByID(ctx, id)
}

// RemoveItem 把行项目移入全局回收站（永不真删）
// 移出请购单和写回收站必须在同一事务里完成
func (s *RequisitionService) RemoveItem(ctx context.Context, requisitionID, itemID int64) (*domain.Requisition, error) {
	entity, err := s.reqRepo.FindByID(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if !entity.Status.ItemRemovable() {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s is %s; items cannot be removed", entity.Ref, entity.Status)
	}

	var removed *domain.RequisitionItem
	for i := range entity.Items {
		if entity.Items[i].ID == itemID {
			removed = &entity.Items[i]
			break
		}
	}
	if removed == nil {
		return nil, apperr.New(apperr.NotFound, "item %d not found in requisition %s", itemID, entity.Ref)
	}

	itemData, err := json.Marshal(removed)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "marshal removed item")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 先推进主表版本：审批的"读回收站→写状态+快照"若跨过本次移出，
		// 它的乐观锁写入会因版本过期而失败，绝不会带着缺行的快照过审
		if err := s.reqRepo.BumpVersion(ctx, tx, requisitionID, entity.Version); err != nil {
			return err
		}
		if err := s.reqRepo.DeleteItem(ctx, tx, requisitionID, itemID); err != nil {
			return err
		}
		return s.queueRepo.Add(ctx, tx, &domain.InQueueItem{
			RequisitionID: requisitionID,
			ItemData:      itemData,
			DateRemoved:   time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("requisition item moved to queue",
		zap.String("ref", entity.Ref), zap.Int64("item_id", itemID))
	return s.reqRepo.FindByID(ctx, requisitionID)
}

// ApproveRequisition 审批通过 (The Big Transaction)
// 前置条件：status ∈ {submitted, pending-approval}；重复审批直接拒绝，不会污染快照。
// 通过的瞬间把当前归属本单的回收站记录冻结进 QueueSnapshot ——
// 之后全局回收站怎么变都影响不到这份快照，Items 和 QueueSnapshot 一起进入只读
func (s *RequisitionService) ApproveRequisition(ctx context.Context, id int64) (*domain.Requisition, error) {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.Status.Approvable() {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s cannot be approved from status %s", entity.Ref, entity.Status)
	}

	queued, err := s.queueRepo.ListByRequisition(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make([]snapshotEntry, 0, len(queued))
	for _, q := range queued {
		entries = append(entries, snapshotEntry{
			ItemData:    json.RawMessage(q.ItemData),
			DateRemoved: q.DateRemoved,
		})
	}
	snapshot, err := json.Marshal(entries)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "marshal queue snapshot")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 状态翻转和快照写入是同一条乐观锁 UPDATE：
		// 并发的第二次审批要么在前置校验挡住，要么在版本号这里吃 Conflict
		return s.reqRepo.UpdateStatus(ctx, tx, id, domain.StatusApproved, snapshot, entity.Version)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("requisition approved",
		zap.String("ref", entity.Ref), zap.Int("snapshot_entries", len(entries)))
	return s.reqRepo.FindByID(ctx, id)
}

// RejectRequisition 驳回（终态），原因必填
func (s *RequisitionService) RejectRequisition(ctx context.Context, id int64, reason string) (*domain.Requisition, error) {
	if reason == "" {
		return nil, apperr.New(apperr.Validation, "rejection reason is required")
	}

	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(entity.Status, domain.StatusRejected) {
		return nil, apperr.New(apperr.PreconditionFailed,
			"requisition %s cannot be rejected from status %s", entity.Ref, entity.Status)
	}

	entity.Notes = entity.Notes + "\nrejected: " + reason

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reqRepo.UpdateMeta(ctx, tx, entity); err != nil {
			return err
		}
		// UpdateMeta 已把版本推进了一格
		return s.reqRepo.UpdateStatus(ctx, tx, id, domain.StatusRejected, nil, entity.Version+1)
	})
	if err != nil {
		return nil, err
	}
	return s.reqRepo.FindByID(ctx, id)
}

// DeleteRequisition 硬删除
// 只允许删没有任何回收站历史的草稿；其余一律拒绝（审计约束）
func (s *RequisitionService) DeleteRequisition(ctx context.Context, id int64) error {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entity.Status != domain.StatusDraft {
		return apperr.New(apperr.PreconditionFailed,
			"requisition %s is %s; only drafts can be deleted", entity.Ref, entity.Status)
	}

	count, err := s.queueRepo.CountByRequisition(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.New(apperr.PreconditionFailed,
			"requisition %s has %d queued audit items and cannot be deleted", entity.Ref, count)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.Delete(ctx, tx, id)
	})
}

// GroupedItems 读取路径：分组小计视图每次基于当前行项目重算
func (s *RequisitionService) GroupedItems(ctx context.Context, id int64) (*domain.Requisition, []ItemGroup, error) {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return entity, GroupItems(entity.Items), nil
}

// QueueSnapshot 读取冻结快照（approved 之前为空）
func (s *RequisitionService) QueueSnapshot(ctx context.Context, id int64) ([]byte, error) {
	entity, err := s.reqRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity.QueueSnapshot, nil
}

// ListRequisitions 查询全部请购单
func (s *RequisitionService) ListRequisitions(ctx context.Context) ([]domain.Requisition, error) {
	return s.reqRepo.List(ctx)
}

// ListQueue 查询全局回收站
func (s *RequisitionService) ListQueue(ctx context.Context) ([]domain.InQueueItem, error) {
	return s.queueRepo.List(ctx)
}

// FindRequisition 查询单张请购单
func (s *RequisitionService) FindRequisition(ctx context.Context, id int64) (*domain.Requisition, error) {
	return s.reqRepo.FindByID(ctx, id)
}
