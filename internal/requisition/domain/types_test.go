package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequisitionTransitions(t *testing.T) {
	cases := []struct {
		from RequisitionStatus
		to   RequisitionStatus
		ok   bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusPendingApproval, true},
		{StatusDraft, StatusApproved, false}, // 草稿不能直接过审
		{StatusSubmitted, StatusPendingApproval, true},
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusPendingApproval, StatusApproved, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPendingApproval, StatusDraft, false},
		{StatusApproved, StatusRejected, false}, // 终态
		{StatusApproved, StatusDraft, false},
		{StatusRejected, StatusSubmitted, false}, // 终态
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestRequisitionStatusPredicates(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusSubmitted.IsTerminal())

	assert.True(t, StatusSubmitted.Approvable())
	assert.True(t, StatusPendingApproval.Approvable())
	assert.False(t, StatusDraft.Approvable())
	assert.False(t, StatusApproved.Approvable())

	assert.True(t, StatusDraft.ItemRemovable())
	assert.True(t, StatusPendingApproval.ItemRemovable())
	assert.False(t, StatusApproved.ItemRemovable())
	assert.False(t, StatusRejected.ItemRemovable())
}
