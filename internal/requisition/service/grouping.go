package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xxz807/eduledger/backend/internal/requisition/domain"
)

// PriorityGroupName 优先/特批行项目强制归入的分组，永远排在最前
const PriorityGroupName = "PRIORITY / SPECIAL"

// ItemGroup 分组小计视图
type ItemGroup struct {
	Name     string                   `json:"name"`
	Items    []domain.RequisitionItem `json:"items"`
	Subtotal decimal.Decimal          `json:"subtotal"`
}

// GroupItems 按分类分组并计算小计（纯读侧函数，每次展示重算，绝不落库）
// 优先行项目单独成组排在最前，其余按分类名排序
func GroupItems(items []domain.RequisitionItem) []ItemGroup {
	byName := make(map[string]*ItemGroup)
	var order []string

	for _, item := range items {
		name := item.Category
		if item.IsPriority {
			name = PriorityGroupName
		} else if name == "" {
			name = "Uncategorized"
		}

		g, ok := byName[name]
		if !ok {
			g = &ItemGroup{Name: name}
			byName[name] = g
			order = append(order, name)
		}
		g.Items = append(g.Items, item)
		g.Subtotal = g.Subtotal.Add(item.Amount)
	}

	sort.Slice(order, func(i, j int) bool {
		// 优先组永远第一
		if order[i] == PriorityGroupName {
			return true
		}
		if order[j] == PriorityGroupName {
			return false
		}
		return order[i] < order[j]
	})

	groups := make([]ItemGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, *byName[name])
	}
	return groups
}
