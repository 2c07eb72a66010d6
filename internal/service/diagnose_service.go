package service

import (
	"context"
	"fmt"
	"time"

	"github.com/leadpulse-id/outreach-service/internal/domain"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
)

type messageLog interface {
	engagementSignals
	LatestInboundAt(ctx context.Context, leadID int64) (*time.Time, error)
	ListRecent(ctx context.Context, leadID int64, n int) ([]domain.Message, error)
}

type followUpLog interface {
	followUpSignals
	CountPendingManual(ctx context.Context, leadID int64) (int, error)
}

type sessionProbe interface {
	Status(ctx context.Context, ownerID string) (string, error)
}

// DiagnoseService re-evaluates the nurture gates for one lead, read-only,
// and reports every failing predicate with an operator hint. It shares the
// gate functions with the send pass so the two cannot drift apart.
type DiagnoseService struct {
	states    engagementStore
	plans     planCatalog
	leads     leadDirectory
	messages  messageLog
	followUps followUpLog
	settings  settingsStore
	gateway   sessionProbe

	nowFn func() time.Time
}

func NewDiagnoseService(
	states engagementStore,
	plans planCatalog,
	leads leadDirectory,
	messages messageLog,
	followUps followUpLog,
	settings settingsStore,
	gateway sessionProbe,
) *DiagnoseService {
	return &DiagnoseService{
		states:    states,
		plans:     plans,
		leads:     leads,
		messages:  messages,
		followUps: followUps,
		settings:  settings,
		gateway:   gateway,
		nowFn:     time.Now,
	}
}

// Diagnose answers "why is nurturing (not) firing for this lead". lastN > 0
// also attaches the last N raw messages.
func (s *DiagnoseService) Diagnose(ctx context.Context, leadID int64, lastN int) (*domain.Diagnosis, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("lead %d not found", leadID)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.states.GetByLeadID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	diagnosis := &domain.Diagnosis{
		Lead:     lead,
		WAStatus: "unknown",
		Settings: *settings,
		State:    state,
		Issues:   []string{},
		Hints:    []string{},
	}

	if err := s.collectSignals(ctx, leadID, diagnosis); err != nil {
		return nil, err
	}

	var issues []Issue

	if !settings.AutoNurtureEnabled {
		issues = append(issues, Issue{
			Code: IssueNurtureDisabled,
			Hint: "the global auto-nurturing switch is off; no lead is processed",
		})
	}

	issues = append(issues, stateGate(state)...)

	// The remaining gates need a state with a plan to evaluate against.
	if state != nil && state.PlanID != nil {
		stepIssues, err := s.evaluateStepGates(ctx, state, diagnosis)
		if err != nil {
			return nil, err
		}
		issues = append(issues, stepIssues...)
	}

	issues = append(issues, contactGate(lead)...)

	if lead.SalesUserID != nil {
		sales, err := s.leads.GetSalesUser(ctx, *lead.SalesUserID)
		if err != nil {
			return nil, err
		}
		if sales != nil {
			s.probeGateway(ctx, sales.WAOwnerID, diagnosis, &issues)
		}
	}

	for _, issue := range issues {
		diagnosis.Issues = append(diagnosis.Issues, issue.Code)
		diagnosis.Hints = append(diagnosis.Hints, issue.Hint)
	}

	if lastN > 0 {
		messages, err := s.messages.ListRecent(ctx, leadID, lastN)
		if err != nil {
			return nil, err
		}
		diagnosis.Messages = messages
	}

	return diagnosis, nil
}

func (s *DiagnoseService) collectSignals(ctx context.Context, leadID int64, diagnosis *domain.Diagnosis) error {
	lastInbound, err := s.messages.LatestInboundAt(ctx, leadID)
	if err != nil {
		return err
	}
	if lastInbound != nil {
		formatted := lastInbound.Format(time.RFC3339)
		diagnosis.Signals.LastInboundAt = &formatted
	}

	lastFollowUp, err := s.followUps.LatestManualAt(ctx, leadID)
	if err != nil {
		return err
	}
	if lastFollowUp != nil {
		formatted := lastFollowUp.Format(time.RFC3339)
		diagnosis.Signals.LastManualFollowUpAt = &formatted
	}

	pending, err := s.followUps.CountPendingManual(ctx, leadID)
	if err != nil {
		return err
	}
	diagnosis.Signals.PendingFollowUps = pending

	return nil
}

// evaluateStepGates mirrors the send pass for one lead: next step existence,
// due time (next_send_at override included), pending follow-ups, the recent
// inbound window, and the template checks.
func (s *DiagnoseService) evaluateStepGates(
	ctx context.Context,
	state *domain.EngagementState,
	diagnosis *domain.Diagnosis,
) ([]Issue, error) {
	var issues []Issue

	now := s.nowFn()
	nextOrder := state.CurrentStepIndex + 1

	sw, err := s.plans.GetStepWithTemplate(ctx, *state.PlanID, nextOrder)
	if err != nil {
		return nil, err
	}
	if sw == nil {
		issues = append(issues, Issue{
			Code: IssueSequenceDone,
			Hint: fmt.Sprintf("plan has no step %d; the sequence is exhausted", nextOrder),
		})
		return issues, nil
	}

	if issue := dueGate(state, &sw.Step, now); issue != nil {
		issues = append(issues, *issue)
	}

	if diagnosis.Signals.PendingFollowUps > 0 {
		issues = append(issues, Issue{
			Code: IssuePendingFollowUp,
			Hint: fmt.Sprintf("%d manual follow-ups are still open for this lead", diagnosis.Signals.PendingFollowUps),
		})
	}

	if since := engagementBaseline(state); since != nil {
		inbound, err := s.messages.HasInboundSince(ctx, state.LeadID, *since)
		if err != nil {
			return nil, err
		}
		manual, err := s.followUps.HasManualSince(ctx, state.LeadID, *since)
		if err != nil {
			return nil, err
		}
		if inbound || manual {
			issues = append(issues, Issue{
				Code: IssueEngaged,
				Hint: "the lead engaged after the last automated send; the next tick will pause instead of sending",
			})
		}
	}

	issues = append(issues, templateGate(sw)...)

	return issues, nil
}

func (s *DiagnoseService) probeGateway(ctx context.Context, ownerID string, diagnosis *domain.Diagnosis, issues *[]Issue) {
	status, err := s.gateway.Status(ctx, ownerID)
	if err != nil {
		logger.Debugf("Gateway status probe failed for owner %s: %v", ownerID, err)
		diagnosis.WAStatus = "unreachable"
		*issues = append(*issues, Issue{
			Code: IssueGatewayOffline,
			Hint: "the dispatch gateway could not be reached for this owner's session",
		})
		return
	}

	diagnosis.WAStatus = status
	if status != "connected" {
		*issues = append(*issues, Issue{
			Code: IssueGatewayOffline,
			Hint: fmt.Sprintf("the owner's gateway session is %q, not connected", status),
		})
	}
}
