package service

import (
	"fmt"
	"sort"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
)

// ResolveOptions 按商品选项组配置校验用户选择，生成选项快照。
// 返回的问题列表非空时调用方必须整体拒绝本次操作。
func ResolveOptions(groups []models.ProductOptionGroup, selectedIDs []uint) ([]models.OrderItemOption, []ValidationIssue) {
	selected := make(map[uint]struct{}, len(selectedIDs))
	ordered := make([]uint, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		if id == 0 {
			continue
		}
		if _, ok := selected[id]; ok {
			continue
		}
		selected[id] = struct{}{}
		ordered = append(ordered, id)
	}

	sortedGroups := make([]models.ProductOptionGroup, len(groups))
	copy(sortedGroups, groups)
	sort.SliceStable(sortedGroups, func(i, j int) bool {
		if sortedGroups[i].SortOrder != sortedGroups[j].SortOrder {
			return sortedGroups[i].SortOrder < sortedGroups[j].SortOrder
		}
		return sortedGroups[i].ID < sortedGroups[j].ID
	})

	snapshots := make([]models.OrderItemOption, 0, len(ordered))
	issues := make([]ValidationIssue, 0)
	consumed := make(map[uint]struct{}, len(ordered))

	for _, group := range sortedGroups {
		if group.DependsOnOptionItemID != nil {
			if _, ok := selected[*group.DependsOnOptionItemID]; !ok {
				continue
			}
		}

		picked := make([]models.ProductOptionItem, 0)
		for _, item := range group.Items {
			if _, ok := selected[item.ID]; ok {
				picked = append(picked, item)
				consumed[item.ID] = struct{}{}
			}
		}

		if len(picked) == 0 && group.IsRequired {
			if def, ok := defaultOptionItem(group.Items); ok {
				picked = append(picked, def)
			} else {
				issues = append(issues, ValidationIssue{
					Code:    constants.IssueOptionGroupRequired,
					Message: fmt.Sprintf("option group %q is required", group.Name),
					GroupID: group.ID,
				})
				continue
			}
		}

		if !group.AllowMultiple && len(picked) > 1 {
			issues = append(issues, ValidationIssue{
				Code:    constants.IssueOptionSingleOnly,
				Message: fmt.Sprintf("option group %q allows a single selection only", group.Name),
				GroupID: group.ID,
			})
			continue
		}

		for _, item := range picked {
			snapshots = append(snapshots, models.OrderItemOption{
				OptionGroupID:   group.ID,
				OptionItemID:    item.ID,
				GroupName:       group.Name,
				ItemName:        item.Name,
				PriceAdjustment: models.NewMoneyFromDecimal(item.PriceAdjustment.Decimal),
			})
		}
	}

	for _, id := range ordered {
		if _, ok := consumed[id]; ok {
			continue
		}
		issues = append(issues, ValidationIssue{
			Code:         constants.IssueOptionInvalid,
			Message:      fmt.Sprintf("invalid option id %d", id),
			OptionItemID: id,
		})
	}

	return snapshots, issues
}

func defaultOptionItem(items []models.ProductOptionItem) (models.ProductOptionItem, bool) {
	for _, item := range items {
		if item.IsDefault {
			return item, true
		}
	}
	return models.ProductOptionItem{}, false
}

// optionsStillResolvable 校验已有快照引用的选项在当前目录配置中仍存在
func optionsStillResolvable(groups []models.ProductOptionGroup, options []models.OrderItemOption) []uint {
	known := make(map[uint]uint)
	for _, group := range groups {
		for _, item := range group.Items {
			known[item.ID] = group.ID
		}
	}
	missing := make([]uint, 0)
	for _, opt := range options {
		groupID, ok := known[opt.OptionItemID]
		if !ok || groupID != opt.OptionGroupID {
			missing = append(missing, opt.OptionItemID)
		}
	}
	return missing
}
