package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xxz807/eduledger/backend/internal/inventory/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func entry(action domain.LogAction, source domain.LogSource, change, comment string) domain.InventoryLog {
	return domain.InventoryLog{
		Action:         action,
		Source:         source,
		QuantityChange: d(change),
		Comment:        comment,
	}
}

func TestResolveRequirementAvailability_Buckets(t *testing.T) {
	logs := []domain.InventoryLog{
		entry(domain.ActionTransferIn, domain.SourceTransferIn, "5", "transfer in from Branch A (TRF-aaaa0001)"),
		entry(domain.ActionReduce, domain.SourceDirect, "3", "issued to dorm"),
	}

	got := ResolveRequirementAvailability(d("10"), logs)

	assert.True(t, d("5").Equal(got.TransferIns))
	assert.True(t, d("3").Equal(got.Used))
	// available = brought + transferIns − used = 10 + 5 − 3
	assert.True(t, d("12").Equal(got.Available))
}

// 冲正日志写负的 QuantityChange，把自己的桶缩回去：
// 调入 5 后整单被拒，补偿行是 action=add / change=−5，净效果回到调入前
func TestResolveRequirementAvailability_ReversalShrinksBucket(t *testing.T) {
	logs := []domain.InventoryLog{
		entry(domain.ActionTransferIn, domain.SourceTransferIn, "5", "transfer in from Branch A (TRF-aaaa0001)"),
		entry(domain.ActionAdd, domain.SourceDirect, "-5", "reversal of rejected TRF-aaaa0001: damaged on arrival"),
	}

	got := ResolveRequirementAvailability(d("10"), logs)

	assert.True(t, got.TransferIns.IsZero())
	assert.True(t, got.Used.IsZero())
	assert.True(t, d("10").Equal(got.Available))
}

func TestResolveRequirementAvailability_RejectedTransferOut(t *testing.T) {
	logs := []domain.InventoryLog{
		entry(domain.ActionTransferOut, domain.SourceTransferOut, "4", "transfer out to Branch B (TRF-bbbb0002)"),
		entry(domain.ActionReduce, domain.SourceDirect, "-4", "reversal of rejected TRF-bbbb0002: wrong destination"),
	}

	got := ResolveRequirementAvailability(d("10"), logs)

	assert.True(t, got.Used.IsZero())
	assert.True(t, d("10").Equal(got.Available))
}

// set 是盘点动作，不进任何桶
func TestResolveRequirementAvailability_SetIgnored(t *testing.T) {
	logs := []domain.InventoryLog{
		entry(domain.ActionSet, domain.SourceDirect, "7", "stock count"),
	}

	got := ResolveRequirementAvailability(d("10"), logs)
	assert.True(t, got.Used.IsZero())
	assert.True(t, got.TransferIns.IsZero())
}

// Source 为空的历史行按备注子串归类；
// 对同一批规范备注，两条路径必须给出完全相同的聚合结果
func TestResolveRequirementAvailability_LegacyCommentParity(t *testing.T) {
	structured := []domain.InventoryLog{
		entry(domain.ActionTransferIn, domain.SourceTransferIn, "5", "transfer in from Branch A (TRF-aaaa0001)"),
		entry(domain.ActionTransferOut, domain.SourceTransferOut, "2", "transfer out to Branch B (TRF-bbbb0002)"),
		entry(domain.ActionReduce, domain.SourceDirect, "3", "issued to dorm"),
		entry(domain.ActionAdd, domain.SourceDirect, "1", "returned by staff"),
		entry(domain.ActionAdd, domain.SourceDirect, "-5", "reversal of rejected TRF-aaaa0001: damaged"),
	}

	legacy := make([]domain.InventoryLog, len(structured))
	for i, log := range structured {
		log.Source = ""
		legacy[i] = log
	}

	want := ResolveRequirementAvailability(d("10"), structured)
	got := ResolveRequirementAvailability(d("10"), legacy)

	assert.True(t, want.Used.Equal(got.Used), "used: %s vs %s", want.Used, got.Used)
	assert.True(t, want.TransferIns.Equal(got.TransferIns), "transferIns: %s vs %s", want.TransferIns, got.TransferIns)
	assert.True(t, want.Available.Equal(got.Available))
}

// 备注同时出现两个调拨子串的历史行："transfer out" 优先，
// 整条只进 used 桶，绝不重复计入 transferIns
func TestResolveRequirementAvailability_LegacyCommentBothSubstrings(t *testing.T) {
	logs := []domain.InventoryLog{
		entry(domain.ActionReduce, "", "3", "transfer out to Branch B after transfer in from Branch A"),
	}

	got := ResolveRequirementAvailability(d("10"), logs)

	assert.True(t, d("3").Equal(got.Used))
	assert.True(t, got.TransferIns.IsZero())
	assert.True(t, d("7").Equal(got.Available))
}

func TestResolveRequirementAvailability_EmptyLogs(t *testing.T) {
	got := ResolveRequirementAvailability(d("10"), nil)
	assert.True(t, d("10").Equal(got.Available))
}
