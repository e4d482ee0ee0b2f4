package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from TransferStatus
		to   TransferStatus
		ok   bool
	}{
		{StatusInTransit, StatusCompleted, true},
		{StatusInTransit, StatusApproved, true},
		{StatusInTransit, StatusRejected, true},
		{StatusCompleted, StatusApproved, true},
		{StatusCompleted, StatusRejected, true},
		{StatusCompleted, StatusInTransit, false}, // 不允许回退
		{StatusApproved, StatusRejected, false},   // 终态
		{StatusApproved, StatusInTransit, false},
		{StatusRejected, StatusApproved, false}, // 终态
		{StatusRejected, StatusInTransit, false},
		{StatusInTransit, StatusInTransit, false}, // 自转换也不合法
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransferTypeFlip(t *testing.T) {
	assert.Equal(t, TransferIn, TransferOut.Flip())
	assert.Equal(t, TransferOut, TransferIn.Flip())
}

func TestTransferStatusIsValid(t *testing.T) {
	assert.True(t, StatusInTransit.IsValid())
	assert.True(t, StatusRejected.IsValid())
	assert.False(t, TransferStatus("cancelled").IsValid())
}
