package approval

import (
	"reflect"
	"testing"

	"go-approval/internal/common/models"
	"go-approval/internal/features/rule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func amount(v int64) *int64 { return &v }

func requiredLine(approver string) models.ChainLine {
	return models.ChainLine{ApproverID: approver, LineType: models.LineTypeApproval, IsRequired: true}
}

func referenceLine(approver string) models.ChainLine {
	return models.ChainLine{ApproverID: approver, LineType: models.LineTypeReference}
}

func mkRule(name string, action rule.Action) rule.Rule {
	return rule.Rule{ID: primitive.NewObjectID(), Name: name, Action: action, IsActive: true}
}

func TestResolveAutoApproveFirstLine(t *testing.T) {
	chain := []models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}
	matched := []rule.Rule{mkRule("small amounts", rule.ActionAutoApprove)}

	res := ResolveLines(chain, matched)

	if len(res.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(res.Lines))
	}
	if res.Lines[0].Status != models.LineStatusApproved {
		t.Errorf("line 1 status = %s, want approved", res.Lines[0].Status)
	}
	if res.Lines[0].AutoRuleID == "" {
		t.Error("auto-approved line must record the rule that resolved it")
	}
	if res.Lines[1].Status != models.LineStatusPending {
		t.Errorf("line 2 status = %s, want pending", res.Lines[1].Status)
	}
	if res.StraightThrough {
		t.Error("a pending required line remains, not straight-through")
	}
	if got := FirstActionableOrder(res.Lines); got != 2 {
		t.Errorf("first actionable order = %d, want 2", got)
	}
}

func TestResolveNoMatchedRules(t *testing.T) {
	chain := []models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}

	res := ResolveLines(chain, nil)

	for i, l := range res.Lines {
		if l.Status != models.LineStatusPending {
			t.Errorf("line %d status = %s, want pending", i+1, l.Status)
		}
	}
	if got := FirstActionableOrder(res.Lines); got != 1 {
		t.Errorf("first actionable order = %d, want 1", got)
	}
}

func TestResolveSkipStepLeavesOnlyReference(t *testing.T) {
	chain := []models.ChainLine{requiredLine("u-1"), referenceLine("u-2")}
	matched := []rule.Rule{mkRule("skip category X", rule.ActionSkipStep)}

	res := ResolveLines(chain, matched)

	if len(res.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(res.Lines))
	}
	if res.Lines[0].LineType != models.LineTypeReference {
		t.Errorf("surviving line type = %s, want reference", res.Lines[0].LineType)
	}
	if res.Lines[0].LineOrder != 1 {
		t.Errorf("surviving line order = %d, want 1 after renumbering", res.Lines[0].LineOrder)
	}
	if !res.StraightThrough {
		t.Error("no required line survives, expected straight-through")
	}
	if len(res.Applied) != 1 || res.Applied[0].ApproverID != "u-1" {
		t.Errorf("skipped line must stay auditable via Applied, got %v", res.Applied)
	}
}

func TestResolveNotifyOnlyDemotesLine(t *testing.T) {
	chain := []models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}
	matched := []rule.Rule{mkRule("fyi only", rule.ActionNotifyOnly)}

	res := ResolveLines(chain, matched)

	if res.Lines[0].LineType != models.LineTypeReference {
		t.Errorf("line 1 type = %s, want reference", res.Lines[0].LineType)
	}
	if res.Lines[0].Actionable() {
		t.Error("demoted line must not hold the pointer")
	}
	if got := FirstActionableOrder(res.Lines); got != 2 {
		t.Errorf("first actionable order = %d, want 2", got)
	}
}

func TestResolveEachRuleConsumesOneLine(t *testing.T) {
	chain := []models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}
	matched := []rule.Rule{
		mkRule("first", rule.ActionAutoApprove),
		mkRule("second", rule.ActionSkipStep),
		mkRule("third", rule.ActionAutoApprove), // nothing left to claim
	}

	res := ResolveLines(chain, matched)

	if len(res.Lines) != 1 {
		t.Fatalf("got %d lines, want 1 after one skip", len(res.Lines))
	}
	if res.Lines[0].Status != models.LineStatusApproved {
		t.Errorf("line status = %s, want approved", res.Lines[0].Status)
	}
	if len(res.Applied) != 2 {
		t.Errorf("got %d applied rules, want 2", len(res.Applied))
	}
	if !res.StraightThrough {
		t.Error("all required lines resolved, expected straight-through")
	}
}

func TestResolveDenseOrdering(t *testing.T) {
	chain := []models.ChainLine{
		requiredLine("u-1"),
		referenceLine("u-2"),
		requiredLine("u-3"),
		requiredLine("u-4"),
	}
	matched := []rule.Rule{mkRule("skip", rule.ActionSkipStep)}

	res := ResolveLines(chain, matched)

	for i, l := range res.Lines {
		if l.LineOrder != i+1 {
			t.Errorf("line at index %d has order %d, want %d", i, l.LineOrder, i+1)
		}
	}
}

func TestResolveDeterminism(t *testing.T) {
	chain := []models.ChainLine{
		requiredLine("u-1"),
		requiredLine("u-2"),
		referenceLine("u-3"),
	}
	matched := []rule.Rule{
		mkRule("a", rule.ActionAutoApprove),
		mkRule("b", rule.ActionNotifyOnly),
	}

	first := ResolveLines(chain, matched)
	second := ResolveLines(chain, matched)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must yield identical resolutions")
	}
}

func TestResolveEmptyChain(t *testing.T) {
	res := ResolveLines(nil, nil)

	if len(res.Lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(res.Lines))
	}
	if !res.StraightThrough {
		t.Error("empty chain must complete straight-through")
	}
}

func TestNextActionableOrderSkipsReference(t *testing.T) {
	lines := []Line{
		{LineOrder: 1, LineType: models.LineTypeApproval, IsRequired: true, Status: models.LineStatusApproved},
		{LineOrder: 2, LineType: models.LineTypeReference, Status: models.LineStatusPending},
		{LineOrder: 3, LineType: models.LineTypeReview, IsRequired: true, Status: models.LineStatusPending},
	}

	if got := NextActionableOrder(lines, 1); got != 3 {
		t.Errorf("NextActionableOrder(after 1) = %d, want 3", got)
	}
	if got := NextActionableOrder(lines, 3); got != 0 {
		t.Errorf("NextActionableOrder(after 3) = %d, want 0", got)
	}
}
