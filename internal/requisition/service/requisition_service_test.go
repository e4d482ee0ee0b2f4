package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xxz807/eduledger/backend/internal/platform/apperr"
	"github.com/xxz807/eduledger/backend/internal/platform/database"
	"github.com/xxz807/eduledger/backend/internal/requisition/adapter/repo"
	"github.com/xxz807/eduledger/backend/internal/requisition/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// newTestService 用内存 sqlite 搭一套完整服务（仓储是真实现，不打桩）
func newTestService(t *testing.T) *RequisitionService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // 内存库必须单连接，否则每个连接各看一份空库

	require.NoError(t, database.AutoMigrate(db))

	return NewRequisitionService(db, repo.NewRequisitionRepo(db), repo.NewQueueRepo(db), zap.NewNop())
}

func mustRequisition(t *testing.T, s *RequisitionService, title string, items ...ItemRequest) *domain.Requisition {
	t.Helper()
	entity, err := s.AddRequisition(context.Background(), RequisitionRequest{
		Title: title,
		Items: items,
	})
	require.NoError(t, err)
	return entity
}

func chalkboard() ItemRequest {
	return ItemRequest{Name: "chalkboard", Category: "Classroom", Quantity: "2", UnitPrice: "1500"}
}

func TestAddRequisition_DraftWithItems(t *testing.T) {
	s := newTestService(t)

	entity := mustRequisition(t, s, "Q3 classroom refresh", chalkboard())

	assert.Equal(t, domain.StatusDraft, entity.Status)
	assert.NotEmpty(t, entity.Ref)
	require.Len(t, entity.Items, 1)
	// Amount = quantity * unit_price
	assert.True(t, d("3000").Equal(entity.Items[0].Amount))
}

func TestAddRequisition_ItemValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.AddRequisition(ctx, RequisitionRequest{Title: ""})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.AddRequisition(ctx, RequisitionRequest{
		Title: "bad", Items: []ItemRequest{{Name: "x", Quantity: "0", UnitPrice: "1"}},
	})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.AddRequisition(ctx, RequisitionRequest{
		Title: "bad", Items: []ItemRequest{{Name: "x", Quantity: "1", UnitPrice: "-2"}},
	})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSubmitAndApprove_Lifecycle(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Q3 classroom refresh", chalkboard())

	// 草稿不能直接过审
	_, err := s.ApproveRequisition(ctx, entity.ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))

	submitted, err := s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)

	approved, err := s.ApproveRequisition(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	// 重复审批被拒
	_, err = s.ApproveRequisition(ctx, entity.ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))

	// 终态后行项目冻结
	_, err = s.AddItem(ctx, entity.ID, chalkboard())
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))
	_, err = s.RemoveItem(ctx, entity.ID, approved.Items[0].ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))
	_, err = s.UpdateRequisition(ctx, entity.ID, "new title", "", "")
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))
}

func TestRemoveItem_MovesToQueueAtomically(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Q3 classroom refresh", chalkboard(),
		ItemRequest{Name: "globe", Category: "Classroom", Quantity: "1", UnitPrice: "700"})

	removedID := entity.Items[0].ID
	after, err := s.RemoveItem(ctx, entity.ID, removedID)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)

	// 回收站里有完整的行项目快照
	queue, err := s.ListQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, entity.ID, queue[0].RequisitionID)

	var snap domain.RequisitionItem
	require.NoError(t, json.Unmarshal(queue[0].ItemData, &snap))
	assert.Equal(t, "chalkboard", snap.Name)

	// 回收站只追加：同一行不能删第二次
	_, err = s.RemoveItem(ctx, entity.ID, removedID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

// 审批瞬间冻结回收站快照：之后全局回收站怎么变，这份快照一个字节都不会动
func TestApprove_FreezesQueueSnapshot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Q3 classroom refresh", chalkboard(),
		ItemRequest{Name: "globe", Category: "Classroom", Quantity: "1", UnitPrice: "700"})

	_, err := s.RemoveItem(ctx, entity.ID, entity.Items[1].ID)
	require.NoError(t, err)

	_, err = s.SubmitRequisition(ctx, entity.ID, "pending-approval")
	require.NoError(t, err)
	_, err = s.ApproveRequisition(ctx, entity.ID)
	require.NoError(t, err)

	frozen, err := s.QueueSnapshot(ctx, entity.ID)
	require.NoError(t, err)
	require.NotEmpty(t, frozen)

	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frozen, &entries))
	require.Len(t, entries, 1)

	// 别的请购单继续折腾回收站
	other := mustRequisition(t, s, "Other requisition", chalkboard())
	_, err = s.RemoveItem(ctx, other.ID, other.Items[0].ID)
	require.NoError(t, err)

	queue, err := s.ListQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	// 冻结的快照逐字节不变
	again, err := s.QueueSnapshot(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, frozen, again)
}

func TestApprove_EmptyQueueSnapshot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "No removals", chalkboard())
	_, err := s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)
	_, err = s.ApproveRequisition(ctx, entity.ID)
	require.NoError(t, err)

	// 没删过行也要冻结出一份空数组快照，读侧不用判 nil
	frozen, err := s.QueueSnapshot(ctx, entity.ID)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(frozen))
}

func TestRejectRequisition(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Doomed requisition", chalkboard())
	_, err := s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)

	_, err = s.RejectRequisition(ctx, entity.ID, "")
	assert.True(t, apperr.Is(err, apperr.Validation))

	rejected, err := s.RejectRequisition(ctx, entity.ID, "over budget")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Contains(t, rejected.Notes, "over budget")

	// 终态：不能再审批
	_, err = s.ApproveRequisition(ctx, entity.ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))
}

func TestSubmitRequisition_InvalidTargets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Draft", chalkboard())

	_, err := s.SubmitRequisition(ctx, entity.ID, "approved")
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)

	// submitted 不能回到 submitted
	_, err = s.SubmitRequisition(ctx, entity.ID, "submitted")
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))
}

func TestDeleteRequisition_DraftOnlyAndNoQueueHistory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// 有回收站历史的草稿不能删（审计约束）
	withHistory := mustRequisition(t, s, "Has history", chalkboard(),
		ItemRequest{Name: "globe", Quantity: "1", UnitPrice: "700"})
	_, err := s.RemoveItem(ctx, withHistory.ID, withHistory.Items[0].ID)
	require.NoError(t, err)

	err = s.DeleteRequisition(ctx, withHistory.ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))

	// 提交过的不能删
	submitted := mustRequisition(t, s, "Submitted", chalkboard())
	_, err = s.SubmitRequisition(ctx, submitted.ID, "submitted")
	require.NoError(t, err)
	err = s.DeleteRequisition(ctx, submitted.ID)
	assert.True(t, apperr.Is(err, apperr.PreconditionFailed))

	// 干净的草稿可以删
	clean := mustRequisition(t, s, "Clean draft", chalkboard())
	require.NoError(t, s.DeleteRequisition(ctx, clean.ID))
	_, err = s.FindRequisition(ctx, clean.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

// 审批的读阶段和写阶段之间发生了行项目移出：
// 移出推进了主表版本，旧版本的状态+快照写入必须吃 Conflict，
// 绝不会带着缺行的快照过审
func TestRemoveItem_InvalidatesInFlightApproval(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Racy requisition", chalkboard(),
		ItemRequest{Name: "globe", Category: "Classroom", Quantity: "1", UnitPrice: "700"})
	_, err := s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)

	// 模拟审批的读阶段：拿到当前版本和（此刻为空的）回收站
	read, err := s.FindRequisition(ctx, entity.ID)
	require.NoError(t, err)
	staleVersion := read.Version

	// 读写之间插入一次行项目移出
	_, err = s.RemoveItem(ctx, entity.ID, read.Items[0].ID)
	require.NoError(t, err)

	// 重放审批的写阶段：旧版本 + 空快照
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.UpdateStatus(ctx, tx, entity.ID, domain.StatusApproved, []byte("[]"), staleVersion)
	})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	// 状态没被翻过去；重新走完整审批，快照里包含刚移出的行
	current, err := s.FindRequisition(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, current.Status)

	_, err = s.ApproveRequisition(ctx, entity.ID)
	require.NoError(t, err)

	frozen, err := s.QueueSnapshot(ctx, entity.ID)
	require.NoError(t, err)
	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frozen, &entries))
	assert.Len(t, entries, 1)
}

// 追加行项目同样推进主表版本，使并发审批的旧版本写入失效
func TestAddItem_InvalidatesInFlightApproval(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Racy requisition", chalkboard())
	_, err := s.SubmitRequisition(ctx, entity.ID, "submitted")
	require.NoError(t, err)

	read, err := s.FindRequisition(ctx, entity.ID)
	require.NoError(t, err)
	staleVersion := read.Version

	_, err = s.AddItem(ctx, entity.ID, ItemRequest{Name: "globe", Quantity: "1", UnitPrice: "700"})
	require.NoError(t, err)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.reqRepo.UpdateStatus(ctx, tx, entity.ID, domain.StatusApproved, []byte("[]"), staleVersion)
	})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestGroupedItems_ReadSide(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	entity := mustRequisition(t, s, "Grouped",
		ItemRequest{Name: "principal chair", Category: "Furniture", Quantity: "1", UnitPrice: "9000", IsPriority: true},
		ItemRequest{Name: "marker", Category: "Stationery", Quantity: "10", UnitPrice: "12"},
	)

	_, groups, err := s.GroupedItems(ctx, entity.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, PriorityGroupName, groups[0].Name)
	assert.True(t, d("9000").Equal(groups[0].Subtotal))
	assert.Equal(t, "Stationery", groups[1].Name)
	assert.True(t, d("120").Equal(groups[1].Subtotal))
}
