package domain

// RequisitionStatus 请购单状态机
type RequisitionStatus string

const (
	StatusDraft           RequisitionStatus = "draft"
	StatusSubmitted       RequisitionStatus = "submitted"
	StatusPendingApproval RequisitionStatus = "pending-approval"
	StatusApproved        RequisitionStatus = "approved" // 终态
	StatusRejected        RequisitionStatus = "rejected" // 终态
)

func (s RequisitionStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal 终态不允许任何转出，Items 和 QueueSnapshot 同时冻结
func (s RequisitionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// requisitionTransitions 集中声明的状态转换表
var requisitionTransitions = map[RequisitionStatus][]RequisitionStatus{
	StatusDraft:           {StatusSubmitted, StatusPendingApproval},
	StatusSubmitted:       {StatusPendingApproval, StatusApproved, StatusRejected},
	StatusPendingApproval: {StatusApproved, StatusRejected},
}

// CanTransition 校验状态转换是否合法
func CanTransition(from, to RequisitionStatus) bool {
	for _, next := range requisitionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Approvable 审批入口允许的来源状态
func (s RequisitionStatus) Approvable() bool {
	return s == StatusSubmitted || s == StatusPendingApproval
}

// ItemRemovable 行项目移入回收站允许的状态
func (s RequisitionStatus) ItemRemovable() bool {
	return s == StatusDraft || s == StatusSubmitted || s == StatusPendingApproval
}
