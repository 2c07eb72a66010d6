package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

//
// Test fakes – only for this file.
//

type fakeMessageLog struct {
	fakeMessages
	lastInboundAt map[int64]*time.Time
	recent        []domain.Message
}

func (m *fakeMessageLog) LatestInboundAt(ctx context.Context, leadID int64) (*time.Time, error) {
	return m.lastInboundAt[leadID], nil
}

func (m *fakeMessageLog) ListRecent(ctx context.Context, leadID int64, n int) ([]domain.Message, error) {
	if len(m.recent) > n {
		return m.recent[:n], nil
	}
	return m.recent, nil
}

type fakeFollowUpLog struct {
	fakeFollowUps
	pendingManual map[int64]int
}

func (f *fakeFollowUpLog) CountPendingManual(ctx context.Context, leadID int64) (int, error) {
	return f.pendingManual[leadID], nil
}

type fakeProbe struct {
	status string
	err    error
}

func (p *fakeProbe) Status(ctx context.Context, ownerID string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.status, nil
}

//
// Fixture
//

type diagnoseFixture struct {
	states    *fakeStates
	plans     *fakePlans
	leads     *fakeLeads
	messages  *fakeMessageLog
	followUps *fakeFollowUpLog
	settings  *fakeSettings
	probe     *fakeProbe

	now time.Time
	svc *DiagnoseService
}

// newDiagnoseFixture mirrors the tick fixture: lead 1 is active on step 1 of
// a plan whose step 2 is due, and the gateway session is connected.
func newDiagnoseFixture() *diagnoseFixture {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	planID := int64(1)
	phone := "+6281300000001"

	f := &diagnoseFixture{
		now: now,
		states: &fakeStates{
			byLead: map[int64]*domain.EngagementState{
				1: {
					ID:               10,
					LeadID:           1,
					Status:           domain.EngagementActive,
					PlanID:           &planID,
					CurrentStepIndex: 1,
					StartedAt:        ptrTime(now.Add(-120 * time.Hour)),
					LastSentAt:       ptrTime(now.Add(-72 * time.Hour)),
				},
			},
		},
		plans: &fakePlans{
			plan: &domain.SequencePlan{ID: planID, Name: "Default nurture", IsActive: true},
			steps: map[int]*domain.StepWithTemplate{
				2: {
					Step: domain.SequenceStep{PlanID: planID, StepOrder: 2, DelayHours: 48, TemplateID: 2},
					Template: &domain.MessageTemplate{
						ID:       2,
						Title:    "Follow up katalog",
						Body:     "Halo {{nama_lead}}!",
						IsActive: true,
					},
				},
			},
		},
		leads: &fakeLeads{
			leads: map[int64]*domain.Lead{
				1: {
					ID:          1,
					Name:        "Rina Wijaya",
					Phone:       &phone,
					SalesUserID: ptrInt64(5),
					StatusCode:  "new",
				},
			},
			sales: map[int64]*domain.SalesUser{
				5: {ID: 5, Name: "Dewi Lestari", WAOwnerID: "wa-dewi"},
			},
			products: map[int64]*domain.Product{},
		},
		messages: &fakeMessageLog{
			fakeMessages:  fakeMessages{inboundSince: map[int64]bool{}, latestManualAt: map[int64]*time.Time{}},
			lastInboundAt: map[int64]*time.Time{},
		},
		followUps: &fakeFollowUpLog{
			fakeFollowUps: fakeFollowUps{manualSince: map[int64]bool{}, latestManualAt: map[int64]*time.Time{}},
			pendingManual: map[int64]int{},
		},
		settings: &fakeSettings{
			settings: domain.Settings{
				AutoNurtureEnabled: true,
				IdleThresholdHours: 48,
				NurtureBatchSize:   50,
				CompanyName:        "LeadPulse",
			},
		},
		probe: &fakeProbe{status: "connected"},
	}

	f.svc = NewDiagnoseService(
		f.states, f.plans, f.leads, f.messages, f.followUps, f.settings, f.probe,
	)
	f.svc.nowFn = func() time.Time { return f.now }

	return f
}

func hasIssue(d *domain.Diagnosis, code string) bool {
	for _, issue := range d.Issues {
		if issue == code {
			return true
		}
	}
	return false
}

//
// Tests
//

func TestDiagnose_HealthyLeadHasNoIssues(t *testing.T) {
	f := newDiagnoseFixture()

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if len(d.Issues) != 0 {
		t.Fatalf("expected no issues for a healthy due lead, got %v", d.Issues)
	}
	if d.WAStatus != "connected" {
		t.Fatalf("expected WAStatus connected, got %q", d.WAStatus)
	}
	if len(d.Hints) != len(d.Issues) {
		t.Fatalf("issues and hints must stay aligned: %d vs %d", len(d.Issues), len(d.Hints))
	}
}

func TestDiagnose_UnknownLead(t *testing.T) {
	f := newDiagnoseFixture()

	if _, err := f.svc.Diagnose(context.Background(), 99, 0); err == nil {
		t.Fatalf("expected error for unknown lead")
	}
}

func TestDiagnose_DisabledNurturing(t *testing.T) {
	f := newDiagnoseFixture()
	f.settings.settings.AutoNurtureEnabled = false

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssueNurtureDisabled) {
		t.Fatalf("expected %s, got %v", IssueNurtureDisabled, d.Issues)
	}
}

func TestDiagnose_NeverEnrolledLead(t *testing.T) {
	f := newDiagnoseFixture()
	delete(f.states.byLead, 1)

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssueNoState) {
		t.Fatalf("expected %s, got %v", IssueNoState, d.Issues)
	}
}

func TestDiagnose_NotDueStep(t *testing.T) {
	f := newDiagnoseFixture()
	f.states.byLead[1].LastSentAt = ptrTime(f.now.Add(-12 * time.Hour))

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssueNotDue) {
		t.Fatalf("expected %s, got %v", IssueNotDue, d.Issues)
	}
}

func TestDiagnose_EngagementWindow(t *testing.T) {
	f := newDiagnoseFixture()
	f.messages.inboundSince[1] = true

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssueEngaged) {
		t.Fatalf("expected %s, got %v", IssueEngaged, d.Issues)
	}
}

func TestDiagnose_PendingFollowUps(t *testing.T) {
	f := newDiagnoseFixture()
	f.followUps.pendingManual[1] = 2

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssuePendingFollowUp) {
		t.Fatalf("expected %s, got %v", IssuePendingFollowUp, d.Issues)
	}
	if d.Signals.PendingFollowUps != 2 {
		t.Fatalf("expected 2 pending follow-ups in signals, got %d", d.Signals.PendingFollowUps)
	}
}

func TestDiagnose_SequenceExhausted(t *testing.T) {
	f := newDiagnoseFixture()
	f.states.byLead[1].CurrentStepIndex = 2 // next would be step 3, which doesn't exist

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if !hasIssue(d, IssueSequenceDone) {
		t.Fatalf("expected %s, got %v", IssueSequenceDone, d.Issues)
	}
}

func TestDiagnose_GatewayUnreachable(t *testing.T) {
	f := newDiagnoseFixture()
	f.probe.err = fmt.Errorf("connection refused")

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if d.WAStatus != "unreachable" {
		t.Fatalf("expected WAStatus unreachable, got %q", d.WAStatus)
	}
	if !hasIssue(d, IssueGatewayOffline) {
		t.Fatalf("expected %s, got %v", IssueGatewayOffline, d.Issues)
	}
}

func TestDiagnose_DisconnectedSession(t *testing.T) {
	f := newDiagnoseFixture()
	f.probe.status = "qr_pending"

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if d.WAStatus != "qr_pending" {
		t.Fatalf("expected raw status to be surfaced, got %q", d.WAStatus)
	}
	if !hasIssue(d, IssueGatewayOffline) {
		t.Fatalf("expected %s, got %v", IssueGatewayOffline, d.Issues)
	}
}

func TestDiagnose_AttachesRecentMessages(t *testing.T) {
	f := newDiagnoseFixture()
	f.messages.recent = []domain.Message{
		{ID: 1, LeadID: 1, Direction: domain.DirectionOutbound, Content: "Halo"},
		{ID: 2, LeadID: 1, Direction: domain.DirectionInbound, Content: "Siapa ini?"},
		{ID: 3, LeadID: 1, Direction: domain.DirectionOutbound, Content: "Dari LeadPulse"},
	}

	d, err := f.svc.Diagnose(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if len(d.Messages) != 2 {
		t.Fatalf("expected 2 attached messages, got %d", len(d.Messages))
	}
}

func TestDiagnose_SignalsCarryTimestamps(t *testing.T) {
	f := newDiagnoseFixture()
	inboundAt := f.now.Add(-3 * time.Hour)
	f.messages.lastInboundAt[1] = &inboundAt

	d, err := f.svc.Diagnose(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Diagnose returned error: %v", err)
	}

	if d.Signals.LastInboundAt == nil {
		t.Fatalf("expected LastInboundAt signal to be set")
	}
	if *d.Signals.LastInboundAt != inboundAt.Format(time.RFC3339) {
		t.Fatalf("expected RFC3339 timestamp, got %q", *d.Signals.LastInboundAt)
	}
}
