package approval

import (
	"fmt"

	"go-approval/internal/common/models"
	"go-approval/internal/features/rule"
)

// Resolution is the resolver's output: the dense, ordered line list a
// submission persists, plus the record of every rule directive that
// shaped it. When no actionable line survives, StraightThrough is set
// and the request closes without ever entering pending.
type Resolution struct {
	Lines           []Line
	StraightThrough bool
	Applied         []AppliedRule
}

// ResolveLines turns the baseline organizational chain into the final
// line list by applying matched rules in their given order. Each rule
// consumes the first required approval or review line no earlier rule
// has claimed:
//
//   - auto_approve marks the line approved up front
//   - skip_step drops the line entirely
//   - notify_only demotes the line to a non-blocking reference
//
// Surviving lines are renumbered densely from 1. Pure function: same
// chain, same matched rules, same output.
func ResolveLines(chain []models.ChainLine, matched []rule.Rule) Resolution {
	lines := make([]Line, len(chain))
	for i, c := range chain {
		lines[i] = Line{
			ApproverID: c.ApproverID,
			LineType:   c.LineType,
			IsRequired: c.IsRequired,
			Status:     models.LineStatusPending,
		}
	}

	removed := make([]bool, len(lines))
	claimed := make([]bool, len(lines))
	var applied []AppliedRule

	for _, r := range matched {
		idx := -1
		for i := range lines {
			if removed[i] || claimed[i] {
				continue
			}
			if lines[i].IsRequired && lines[i].LineType.Blocking() {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		claimed[idx] = true

		entry := AppliedRule{
			RuleID:     r.ID.Hex(),
			RuleName:   r.Name,
			Action:     r.Action,
			ApproverID: lines[idx].ApproverID,
		}
		switch r.Action {
		case rule.ActionAutoApprove:
			lines[idx].Status = models.LineStatusApproved
			lines[idx].AutoRuleID = r.ID.Hex()
			entry.Note = fmt.Sprintf("line auto-approved by rule %q", r.Name)
		case rule.ActionSkipStep:
			removed[idx] = true
			entry.Note = fmt.Sprintf("line skipped by rule %q", r.Name)
		case rule.ActionNotifyOnly:
			lines[idx].LineType = models.LineTypeReference
			lines[idx].IsRequired = false
			lines[idx].AutoRuleID = r.ID.Hex()
			entry.Note = fmt.Sprintf("line demoted to reference by rule %q", r.Name)
		}
		applied = append(applied, entry)
	}

	out := make([]Line, 0, len(lines))
	for i := range lines {
		if removed[i] {
			continue
		}
		l := lines[i]
		l.LineOrder = len(out) + 1
		out = append(out, l)
	}

	return Resolution{
		Lines:           out,
		StraightThrough: FirstActionableOrder(out) == 0,
		Applied:         applied,
	}
}

// FirstActionableOrder returns the lowest order among pending required
// approval/review lines, or 0 when none exists.
func FirstActionableOrder(lines []Line) int {
	return NextActionableOrder(lines, 0)
}

// NextActionableOrder returns the lowest actionable order strictly
// greater than after, or 0 when none remains.
func NextActionableOrder(lines []Line, after int) int {
	best := 0
	for _, l := range lines {
		if l.LineOrder <= after || !l.Actionable() {
			continue
		}
		if best == 0 || l.LineOrder < best {
			best = l.LineOrder
		}
	}
	return best
}
