package domain

// LogAction 库存日志动作
type LogAction string

const (
	ActionAdd         LogAction = "add"
	ActionReduce      LogAction = "reduce"
	ActionSet         LogAction = "set"
	ActionTransferIn  LogAction = "transfer_in"
	ActionTransferOut LogAction = "transfer_out"
)

func (a LogAction) IsValid() bool {
	switch a {
	case ActionAdd, ActionReduce, ActionSet, ActionTransferIn, ActionTransferOut:
		return true
	}
	return false
}

// LogSource 日志来源的结构化标记
// 旧系统靠在备注里做子串匹配来区分调拨和直接增减，备注一改措辞统计就悄悄错掉；
// 这里落成结构化字段，备注只作展示。Source 为空的历史行仍按备注规则归类
type LogSource string

const (
	SourceDirect      LogSource = "direct"
	SourceTransferIn  LogSource = "transfer_in"
	SourceTransferOut LogSource = "transfer_out"
)

// TransferType 调拨方向（以本校库存为参照：out = 调出, in = 调入）
type TransferType string

const (
	TransferOut TransferType = "out"
	TransferIn  TransferType = "in"
)

func (t TransferType) IsValid() bool {
	return t == TransferOut || t == TransferIn
}

// Flip 生成冲正调拨时方向取反
func (t TransferType) Flip() TransferType {
	if t == TransferOut {
		return TransferIn
	}
	return TransferOut
}

// TransferStatus 调拨状态机
type TransferStatus string

const (
	StatusInTransit TransferStatus = "in-transit" // 初始态
	StatusCompleted TransferStatus = "completed"  // 可选的"已到货"中间信号
	StatusApproved  TransferStatus = "approved"   // 终态（成功）
	StatusRejected  TransferStatus = "rejected"   // 终态（失败，必须配对冲正调拨）
)

func (s TransferStatus) IsValid() bool {
	switch s {
	case StatusInTransit, StatusCompleted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// transferTransitions 集中声明的状态转换表
// 非法转换一律在边界拒绝，不散落在 handler 里判断
var transferTransitions = map[TransferStatus][]TransferStatus{
	StatusInTransit: {StatusCompleted, StatusApproved, StatusRejected},
	StatusCompleted: {StatusApproved, StatusRejected},
	// approved / rejected 是终态，不允许任何转出
}

// CanTransition 校验状态转换是否合法
func CanTransition(from, to TransferStatus) bool {
	for _, next := range transferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
