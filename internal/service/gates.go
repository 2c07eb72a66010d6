package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// Issue is one failing gate: a stable machine code plus an operator hint.
type Issue struct {
	Code string `json:"code"`
	Hint string `json:"hint"`
}

// Gate issue codes. The send pass and the diagnostics evaluator both go
// through the predicates below, so the two can never disagree about why a
// lead did or didn't fire.
const (
	IssueNurtureDisabled  = "auto_nurture_disabled"
	IssueNoState          = "no_engagement_state"
	IssueNotActive        = "status_not_active"
	IssueNoPlan           = "no_plan_assigned"
	IssueNotEnrolled      = "not_enrolled"
	IssueSequenceDone     = "sequence_exhausted"
	IssueNextSendFuture   = "next_send_in_future"
	IssueNotDue           = "not_due"
	IssueNoSendBaseline   = "no_send_baseline"
	IssueEngaged          = "recent_engagement"
	IssuePendingFollowUp  = "pending_manual_follow_up"
	IssueNoPhone          = "lead_missing_phone"
	IssueNoSalesOwner     = "lead_missing_sales_owner"
	IssueGatewayOffline   = "gateway_not_connected"
	IssueTemplateMissing  = "template_missing"
	IssueTemplateInactive = "template_inactive"
	IssueTemplateEmpty    = "template_empty"
)

// stateGate checks that the engagement state exists and is eligible for the
// send pass: active, has a plan, already past step 0.
func stateGate(state *domain.EngagementState) []Issue {
	if state == nil {
		return []Issue{{
			Code: IssueNoState,
			Hint: "lead was never enrolled in a nurture sequence",
		}}
	}

	var issues []Issue

	if state.Status != domain.EngagementActive {
		issues = append(issues, Issue{
			Code: IssueNotActive,
			Hint: fmt.Sprintf("engagement status is %q, only active leads are sent to", state.Status),
		})
	}

	if state.PlanID == nil {
		issues = append(issues, Issue{
			Code: IssueNoPlan,
			Hint: "no sequence plan is assigned to this lead",
		})
	}

	if state.CurrentStepIndex == 0 {
		issues = append(issues, Issue{
			Code: IssueNotEnrolled,
			Hint: "step 1 has not been sent yet; the enrollment path owns the first send",
		})
	}

	return issues
}

// dueGate decides whether the next step is due at now. An explicit
// next_send_at overrides the step delay; otherwise the step's delay counts
// from last_sent_at. Returns nil when due.
func dueGate(state *domain.EngagementState, step *domain.SequenceStep, now time.Time) *Issue {
	if state.NextSendAt != nil {
		if now.Before(*state.NextSendAt) {
			return &Issue{
				Code: IssueNextSendFuture,
				Hint: fmt.Sprintf("explicit next send override is at %s", state.NextSendAt.Format(time.RFC3339)),
			}
		}
		return nil
	}

	if state.LastSentAt == nil {
		return &Issue{
			Code: IssueNoSendBaseline,
			Hint: "state has no last_sent_at to measure the step delay from",
		}
	}

	elapsed := now.Sub(*state.LastSentAt)
	required := time.Duration(step.DelayHours) * time.Hour
	if elapsed < required {
		return &Issue{
			Code: IssueNotDue,
			Hint: fmt.Sprintf("step %d needs %dh since the previous send, only %.1fh elapsed",
				step.StepOrder, step.DelayHours, elapsed.Hours()),
		}
	}

	return nil
}

// contactGate requires a phone number and an owning sales user before any
// send. Failures are data gaps, not crashes.
func contactGate(lead *domain.Lead) []Issue {
	var issues []Issue

	if lead.Phone == nil || strings.TrimSpace(*lead.Phone) == "" {
		issues = append(issues, Issue{
			Code: IssueNoPhone,
			Hint: "lead has no phone number to send to",
		})
	}

	if lead.SalesUserID == nil {
		issues = append(issues, Issue{
			Code: IssueNoSalesOwner,
			Hint: "lead has no owning sales user, so no gateway session to send on",
		})
	}

	return issues
}

// templateGate checks the resolved next step's template. A broken template is
// a configuration gap: the lead is skipped, never crashed on.
func templateGate(sw *domain.StepWithTemplate) []Issue {
	if sw.Template == nil {
		return []Issue{{
			Code: IssueTemplateMissing,
			Hint: fmt.Sprintf("step %d references template %d which does not exist", sw.Step.StepOrder, sw.Step.TemplateID),
		}}
	}

	var issues []Issue

	if !sw.Template.IsActive {
		issues = append(issues, Issue{
			Code: IssueTemplateInactive,
			Hint: fmt.Sprintf("template %q is deactivated", sw.Template.Title),
		})
	}

	if strings.TrimSpace(sw.Template.Body) == "" {
		issues = append(issues, Issue{
			Code: IssueTemplateEmpty,
			Hint: fmt.Sprintf("template %q has an empty body", sw.Template.Title),
		})
	}

	return issues
}

// engagementBaseline picks the reference point for the engagement window:
// last_sent_at, else started_at. Nil means there is nothing to compare
// against yet.
func engagementBaseline(state *domain.EngagementState) *time.Time {
	if state.LastSentAt != nil {
		return state.LastSentAt
	}
	return state.StartedAt
}

// resumeBaseline computes the idle-resume reference: the later of the most
// recent manual signal and paused_at. Nil when no reliable baseline exists.
func resumeBaseline(pausedAt, lastManualFollowUp, lastManualOutbound *time.Time) *time.Time {
	var baseline *time.Time

	for _, candidate := range []*time.Time{pausedAt, lastManualFollowUp, lastManualOutbound} {
		if candidate == nil {
			continue
		}
		if baseline == nil || candidate.After(*baseline) {
			baseline = candidate
		}
	}

	return baseline
}
