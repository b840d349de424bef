package flavours

import "strings"

// Option is a single flavour checkbox inside a group.
type Option struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Checked   bool   `json:"checked"`
}

// Group is one flavour group of a menu item, rendered as a checkbox block or
// a radio block when MaxQuantity is one.
type Group struct {
	Title       string   `json:"title"`
	MaxQuantity int      `json:"max_quantity"`
	Options     []Option `json:"options"`
}

// BuildGroups folds the flat menu/flavour rows into ordered groups, marking
// the options found in selected as checked. Group order follows the first
// appearance of each group title in the rows.
func BuildGroups(rows []MenuFlavourRow, selected []int64) []Group {
	checked := make(map[int64]bool, len(selected))
	for _, id := range selected {
		checked[id] = true
	}

	var groups []Group
	index := map[string]int{}
	for _, row := range rows {
		pos, ok := index[row.GrpTitle]
		if !ok {
			pos = len(groups)
			index[row.GrpTitle] = pos
			groups = append(groups, Group{
				Title:       row.GrpTitle,
				MaxQuantity: row.Quantity,
				Options:     []Option{},
			})
		}
		groups[pos].Options = append(groups[pos].Options, Option{
			ID:        row.FlvID,
			Name:      row.Name,
			Available: row.Available,
			Checked:   checked[row.FlvID] && row.Available,
		})
	}
	return groups
}

// Toggle flips one flavour in place and reports whether anything changed.
//
// Unchecking is always allowed. Checking succeeds while the group still has
// room; a single-choice group swaps the previous pick instead. A check on a
// full multi-choice group, or on an unavailable flavour, leaves the state
// untouched.
func Toggle(groups []Group, flavourID int64) bool {
	for gi := range groups {
		group := &groups[gi]
		for oi := range group.Options {
			option := &group.Options[oi]
			if option.ID != flavourID {
				continue
			}
			if !option.Available {
				return false
			}
			if option.Checked {
				option.Checked = false
				return true
			}
			if group.MaxQuantity == 1 {
				for i := range group.Options {
					group.Options[i].Checked = false
				}
				option.Checked = true
				return true
			}
			if countChecked(*group) < group.MaxQuantity {
				option.Checked = true
				return true
			}
			return false
		}
	}
	return false
}

// Summary joins the checked flavour names in display order, the label shown
// next to a cart unit.
func Summary(groups []Group) string {
	var parts []string
	for _, group := range groups {
		for _, option := range group.Options {
			if option.Checked {
				parts = append(parts, option.Name)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// SelectedIDs returns the checked flavour ids in display order.
func SelectedIDs(groups []Group) []int64 {
	ids := []int64{}
	for _, group := range groups {
		for _, option := range group.Options {
			if option.Checked {
				ids = append(ids, option.ID)
			}
		}
	}
	return ids
}

func countChecked(group Group) int {
	n := 0
	for _, option := range group.Options {
		if option.Checked {
			n++
		}
	}
	return n
}
