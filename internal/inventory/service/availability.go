package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xxz807/eduledger/backend/internal/inventory/domain"
)

// Availability "需求清单"物品的可用量折算结果
// Available = Brought + TransferIns − Used
type Availability struct {
	Brought     decimal.Decimal `json:"brought"`
	TransferIns decimal.Decimal `json:"transfer_ins"`
	Used        decimal.Decimal `json:"used"`
	Available   decimal.Decimal `json:"available"`
}

// bucket 日志归类结果
type bucket int

const (
	bucketNone bucket = iota
	bucketUsed
	bucketTransferIns
)

// classify 决定一条日志计入哪个桶
// 有结构化 Source 的行直接按字段归类；Source 为空的历史行退回备注子串规则：
//   - used:        备注含 "transfer out"，或 action==reduce 且备注不含 "transfer in"
//   - transferIns: 备注含 "transfer in"，或 action==add 且备注不含 "transfer out"
//
// 两条路径对同一批规范备注必须给出完全相同的聚合结果（有测试钉住）
func classify(log domain.InventoryLog) bucket {
	if log.Source != "" {
		switch log.Source {
		case domain.SourceTransferOut:
			return bucketUsed
		case domain.SourceTransferIn:
			return bucketTransferIns
		case domain.SourceDirect:
			switch log.Action {
			case domain.ActionReduce:
				return bucketUsed
			case domain.ActionAdd:
				return bucketTransferIns
			}
			return bucketNone // set 不进任何桶
		}
		return bucketNone
	}

	comment := strings.ToLower(log.Comment)
	hasOut := strings.Contains(comment, "transfer out")
	hasIn := strings.Contains(comment, "transfer in")

	// 备注同时含两个子串时 "transfer out" 优先，整条只进 used 桶，
	// 一条日志永远不会被重复计入两个桶
	if hasOut || (log.Action == domain.ActionReduce && !hasIn) {
		return bucketUsed
	}
	if hasIn || (log.Action == domain.ActionAdd && !hasOut) {
		return bucketTransferIns
	}
	return bucketNone
}

// ResolveRequirementAvailability 折算"需求清单"物品的可用量（纯函数，每次调用重算）
// used / transferIns 是各自桶内 QuantityChange 的原样求和：
// 正常动作写正数，冲正动作写负数把桶缩回去；
// brought 是外部传入的聚合值（关联学生申报的实物携带合计），与日志无关
func ResolveRequirementAvailability(brought decimal.Decimal, logs []domain.InventoryLog) Availability {
	var used, transferIns decimal.Decimal

	for _, log := range logs {
		switch classify(log) {
		case bucketUsed:
			used = used.Add(log.QuantityChange)
		case bucketTransferIns:
			transferIns = transferIns.Add(log.QuantityChange)
		}
	}

	return Availability{
		Brought:     brought,
		TransferIns: transferIns,
		Used:        used,
		Available:   brought.Add(transferIns).Sub(used),
	}
}
