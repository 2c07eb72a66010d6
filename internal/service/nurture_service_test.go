package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

//
// Test fakes – only for this file.
//

type pauseCall struct {
	leadID int64
	reason domain.PauseReason
	manual bool
}

type fakeStates struct {
	byLead     map[int64]*domain.EngagementState
	paused     []domain.EngagementState
	candidates []domain.EngagementState

	listCandidatesCalls int
	resumed             []int64
	pauseCalls          []pauseCall
	commits             []domain.SendCommit
	commitErr           error
	created             []int64
}

func (s *fakeStates) GetByLeadID(ctx context.Context, leadID int64) (*domain.EngagementState, error) {
	return s.byLead[leadID], nil
}

func (s *fakeStates) ListPaused(ctx context.Context) ([]domain.EngagementState, error) {
	return s.paused, nil
}

func (s *fakeStates) ListSendCandidates(ctx context.Context, limit int) ([]domain.EngagementState, error) {
	s.listCandidatesCalls++
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func (s *fakeStates) Create(ctx context.Context, leadID, planID int64, startedAt time.Time, nextSendAt *time.Time) (*domain.EngagementState, error) {
	s.created = append(s.created, leadID)
	return &domain.EngagementState{
		LeadID:     leadID,
		Status:     domain.EngagementActive,
		PlanID:     &planID,
		StartedAt:  &startedAt,
		NextSendAt: nextSendAt,
	}, nil
}

func (s *fakeStates) Pause(ctx context.Context, leadID int64, reason domain.PauseReason, manual bool, at time.Time) error {
	s.pauseCalls = append(s.pauseCalls, pauseCall{leadID: leadID, reason: reason, manual: manual})
	return nil
}

func (s *fakeStates) Resume(ctx context.Context, leadID int64) error {
	s.resumed = append(s.resumed, leadID)
	return nil
}

func (s *fakeStates) ApplySendResult(ctx context.Context, p domain.SendCommit) (int64, error) {
	if s.commitErr != nil {
		return 0, s.commitErr
	}
	s.commits = append(s.commits, p)
	return int64(len(s.commits)), nil
}

type fakePlans struct {
	plan  *domain.SequencePlan
	steps map[int]*domain.StepWithTemplate

	firstStepDelay *int
}

func (p *fakePlans) GetPlan(ctx context.Context, id int64) (*domain.SequencePlan, error) {
	return p.plan, nil
}

func (p *fakePlans) PickPlanForLead(ctx context.Context, productID, sourceID *int64, statusCode string) (*domain.SequencePlan, error) {
	return p.plan, nil
}

func (p *fakePlans) GetStep(ctx context.Context, planID int64, order int) (*domain.SequenceStep, error) {
	sw := p.steps[order]
	if sw == nil {
		return nil, nil
	}
	return &sw.Step, nil
}

func (p *fakePlans) GetStepWithTemplate(ctx context.Context, planID int64, order int) (*domain.StepWithTemplate, error) {
	return p.steps[order], nil
}

func (p *fakePlans) GetFirstStepDelayHours(ctx context.Context, planID int64) (*int, error) {
	return p.firstStepDelay, nil
}

type fakeLeads struct {
	leads    map[int64]*domain.Lead
	sales    map[int64]*domain.SalesUser
	products map[int64]*domain.Product
}

func (l *fakeLeads) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	return l.leads[id], nil
}

func (l *fakeLeads) GetSalesUser(ctx context.Context, id int64) (*domain.SalesUser, error) {
	return l.sales[id], nil
}

func (l *fakeLeads) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return l.products[id], nil
}

type fakeMessages struct {
	inboundSince   map[int64]bool
	latestManualAt map[int64]*time.Time
}

func (m *fakeMessages) HasInboundSince(ctx context.Context, leadID int64, since time.Time) (bool, error) {
	return m.inboundSince[leadID], nil
}

func (m *fakeMessages) LatestManualOutboundAt(ctx context.Context, leadID int64) (*time.Time, error) {
	return m.latestManualAt[leadID], nil
}

type fakeFollowUps struct {
	manualSince    map[int64]bool
	latestManualAt map[int64]*time.Time
}

func (f *fakeFollowUps) HasManualSince(ctx context.Context, leadID int64, since time.Time) (bool, error) {
	return f.manualSince[leadID], nil
}

func (f *fakeFollowUps) LatestManualAt(ctx context.Context, leadID int64) (*time.Time, error) {
	return f.latestManualAt[leadID], nil
}

type fakeSettings struct {
	settings domain.Settings
}

func (s *fakeSettings) Get(ctx context.Context) (*domain.Settings, error) {
	cp := s.settings
	return &cp, nil
}

type textSend struct {
	ownerID string
	to      string
	body    string
	meta    map[string]string
}

type docSend struct {
	ownerID string
	fileURL string
	caption string
}

type fakeGateway struct {
	ensureErr error
	sendErr   error

	textSends []textSend
	docSends  []docSend
}

func (g *fakeGateway) EnsureReady(ctx context.Context, ownerID string) error {
	return g.ensureErr
}

func (g *fakeGateway) SendText(ctx context.Context, ownerID, to, body string, meta map[string]string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.textSends = append(g.textSends, textSend{ownerID: ownerID, to: to, body: body, meta: meta})
	return fmt.Sprintf("ext-%d", len(g.textSends)), nil
}

func (g *fakeGateway) SendDocument(ctx context.Context, ownerID, to, fileURL, fileName, mimeType, caption string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.docSends = append(g.docSends, docSend{ownerID: ownerID, fileURL: fileURL, caption: caption})
	return fmt.Sprintf("doc-%d", len(g.docSends)), nil
}

//
// Fixture
//

type tickFixture struct {
	states    *fakeStates
	plans     *fakePlans
	leads     *fakeLeads
	messages  *fakeMessages
	followUps *fakeFollowUps
	settings  *fakeSettings
	gateway   *fakeGateway

	now time.Time
	svc *NurtureService
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }

// newTickFixture wires a happy-path world: one active lead on step 1 of a
// two-step plan, last sent 72h ago with step 2 requiring 48h.
func newTickFixture() *tickFixture {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	planID := int64(1)
	phone := "+6281300000001"

	f := &tickFixture{
		now: now,
		states: &fakeStates{
			byLead: map[int64]*domain.EngagementState{},
			candidates: []domain.EngagementState{
				{
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
						Body:     "Halo {{nama_lead}}, sudah lihat katalog {{produk}}?",
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
					Company:     "PT Maju Jaya",
					ProductID:   ptrInt64(1),
					SalesUserID: ptrInt64(5),
					StatusCode:  "new",
				},
			},
			sales: map[int64]*domain.SalesUser{
				5: {ID: 5, Name: "Dewi Lestari", Phone: "+6281200000001", WAOwnerID: "wa-dewi"},
			},
			products: map[int64]*domain.Product{
				1: {ID: 1, Name: "Paket CRM Starter", Price: 1500000, CatalogURL: "https://leadpulse.id/catalog/starter"},
			},
		},
		messages:  &fakeMessages{inboundSince: map[int64]bool{}, latestManualAt: map[int64]*time.Time{}},
		followUps: &fakeFollowUps{manualSince: map[int64]bool{}, latestManualAt: map[int64]*time.Time{}},
		settings: &fakeSettings{
			settings: domain.Settings{
				AutoNurtureEnabled: true,
				IdleThresholdHours: 48,
				NurtureBatchSize:   50,
				CompanyName:        "LeadPulse",
			},
		},
		gateway: &fakeGateway{},
	}

	f.svc = NewNurtureService(
		f.states, f.plans, f.leads, f.messages, f.followUps, f.settings,
		nil, f.gateway, nil,
	)
	f.svc.nowFn = func() time.Time { return f.now }

	return f
}

//
// Tick: send pass
//

func TestRunTick_SendsDueStep(t *testing.T) {
	f := newTickFixture()

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Processed != 1 || result.SentCount != 1 {
		t.Fatalf("expected processed=1 sent=1, got processed=%d sent=%d", result.Processed, result.SentCount)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	if len(f.gateway.textSends) != 1 {
		t.Fatalf("expected 1 gateway send, got %d", len(f.gateway.textSends))
	}
	send := f.gateway.textSends[0]
	if send.ownerID != "wa-dewi" {
		t.Errorf("expected send on owner wa-dewi, got %q", send.ownerID)
	}
	if send.body != "Halo Rina Wijaya, sudah lihat katalog Paket CRM Starter?" {
		t.Errorf("unexpected rendered body: %q", send.body)
	}
	if send.meta["dedupKey"] != "1:2" {
		t.Errorf("expected dedup key 1:2, got %q", send.meta["dedupKey"])
	}
	if send.meta["source"] != "nurture" {
		t.Errorf("expected meta source nurture, got %q", send.meta["source"])
	}

	if len(f.states.commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(f.states.commits))
	}
	commit := f.states.commits[0]
	if commit.LeadID != 1 || commit.StepOrder != 2 {
		t.Errorf("expected commit for lead 1 step 2, got lead %d step %d", commit.LeadID, commit.StepOrder)
	}
	if commit.DedupKey != "1:2" {
		t.Errorf("expected commit dedup key 1:2, got %q", commit.DedupKey)
	}
	if !commit.SequenceComplete {
		t.Errorf("expected SequenceComplete=true when no step 3 exists")
	}
}

func TestRunTick_EngagementWinsOverDueSend(t *testing.T) {
	f := newTickFixture()
	f.messages.inboundSince[1] = true

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Paused != 1 || result.SentCount != 0 {
		t.Fatalf("expected paused=1 sent=0, got paused=%d sent=%d", result.Paused, result.SentCount)
	}

	if len(f.gateway.textSends) != 0 {
		t.Fatalf("expected no gateway send, got %d", len(f.gateway.textSends))
	}

	if len(f.states.pauseCalls) != 1 {
		t.Fatalf("expected 1 pause call, got %d", len(f.states.pauseCalls))
	}
	call := f.states.pauseCalls[0]
	if call.leadID != 1 || call.reason != domain.PauseReasonSystemRule || call.manual {
		t.Errorf("expected system_rule pause for lead 1, got %+v", call)
	}
}

func TestRunTick_ManualFollowUpAlsoPauses(t *testing.T) {
	f := newTickFixture()
	f.followUps.manualSince[1] = true

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Paused != 1 {
		t.Fatalf("expected paused=1, got %d", result.Paused)
	}
	if len(f.gateway.textSends) != 0 {
		t.Fatalf("expected no gateway send, got %d", len(f.gateway.textSends))
	}
}

func TestRunTick_NotDueSkips(t *testing.T) {
	f := newTickFixture()
	f.states.candidates[0].LastSentAt = ptrTime(f.now.Add(-24 * time.Hour))

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 0 || result.Paused != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected a clean skip, got %+v", result)
	}
	if len(f.gateway.textSends) != 0 {
		t.Fatalf("expected no gateway send, got %d", len(f.gateway.textSends))
	}
}

func TestRunTick_NextSendOverrideBlocksDueStep(t *testing.T) {
	f := newTickFixture()
	// Delay has long elapsed, but an explicit override sits in the future.
	f.states.candidates[0].NextSendAt = ptrTime(f.now.Add(6 * time.Hour))

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 0 {
		t.Fatalf("expected no send under a future override, got %d", result.SentCount)
	}
}

func TestRunTick_NextSendOverrideUnlocksEarlySend(t *testing.T) {
	f := newTickFixture()
	// The step delay has not elapsed, but the override already has.
	f.states.candidates[0].LastSentAt = ptrTime(f.now.Add(-1 * time.Hour))
	f.states.candidates[0].NextSendAt = ptrTime(f.now.Add(-10 * time.Minute))

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 1 {
		t.Fatalf("expected an override-driven send, got %d", result.SentCount)
	}
}

func TestRunTick_GatewayFailureKeepsStep(t *testing.T) {
	f := newTickFixture()
	f.gateway.sendErr = fmt.Errorf("session disconnected")

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 0 {
		t.Fatalf("expected no successful send, got %d", result.SentCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].LeadID != 1 {
		t.Fatalf("expected one error for lead 1, got %v", result.Errors)
	}

	// The step must not advance: no commit, no pause.
	if len(f.states.commits) != 0 {
		t.Fatalf("expected no commit after a failed send, got %d", len(f.states.commits))
	}
	if len(f.states.pauseCalls) != 0 {
		t.Fatalf("expected no pause after a failed send, got %d", len(f.states.pauseCalls))
	}
}

func TestRunTick_CommitFailureIsReportedDistinctly(t *testing.T) {
	f := newTickFixture()
	f.states.commitErr = fmt.Errorf("deadlock")

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
	if want := "send delivered but commit failed"; !strings.Contains(result.Errors[0].Reason, want) {
		t.Fatalf("expected error to mention %q, got %q", want, result.Errors[0].Reason)
	}
}

func TestRunTick_DisabledIsNoOp(t *testing.T) {
	f := newTickFixture()
	f.settings.settings.AutoNurtureEnabled = false

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Processed != 0 || result.SentCount != 0 || result.Resumed != 0 {
		t.Fatalf("expected an empty result, got %+v", result)
	}
	if f.states.listCandidatesCalls != 0 {
		t.Fatalf("expected no candidate listing when disabled, got %d calls", f.states.listCandidatesCalls)
	}
}

func TestRunTick_PerLeadIsolation(t *testing.T) {
	f := newTickFixture()

	// A second candidate whose lead has no phone number.
	planID := int64(1)
	f.states.candidates = append(f.states.candidates, domain.EngagementState{
		ID:               11,
		LeadID:           2,
		Status:           domain.EngagementActive,
		PlanID:           &planID,
		CurrentStepIndex: 1,
		LastSentAt:       ptrTime(f.now.Add(-72 * time.Hour)),
	})
	f.leads.leads[2] = &domain.Lead{
		ID:          2,
		Name:        "Sari Handayani",
		Company:     "Toko Sari",
		SalesUserID: ptrInt64(5),
		StatusCode:  "new",
	}

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Processed != 2 {
		t.Fatalf("expected processed=2, got %d", result.Processed)
	}
	if result.SentCount != 1 {
		t.Fatalf("expected the healthy lead to still send, got sent=%d", result.SentCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].LeadID != 2 {
		t.Fatalf("expected one error for lead 2, got %v", result.Errors)
	}
}

func TestRunTick_MediaTemplateSendsDocument(t *testing.T) {
	f := newTickFixture()
	mediaURL := "https://cdn.leadpulse.id/brochures/starter.pdf"
	f.plans.steps[2].Template.MediaURL = &mediaURL

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 1 {
		t.Fatalf("expected sent=1, got %d", result.SentCount)
	}
	if len(f.gateway.docSends) != 1 {
		t.Fatalf("expected a document send, got %d", len(f.gateway.docSends))
	}
	if len(f.gateway.textSends) != 0 {
		t.Fatalf("expected no text send for a media template, got %d", len(f.gateway.textSends))
	}
	if f.gateway.docSends[0].fileURL != mediaURL {
		t.Errorf("expected document url %q, got %q", mediaURL, f.gateway.docSends[0].fileURL)
	}
}

func TestRunTick_InactiveTemplateSkipsLead(t *testing.T) {
	f := newTickFixture()
	f.plans.steps[2].Template.IsActive = false

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.SentCount != 0 {
		t.Fatalf("expected no send with an inactive template, got %d", result.SentCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
}

//
// Tick: resume pass
//

func pausedState(leadID int64, pausedAt *time.Time) domain.EngagementState {
	planID := int64(1)
	return domain.EngagementState{
		LeadID:           leadID,
		Status:           domain.EngagementPaused,
		PlanID:           &planID,
		CurrentStepIndex: 1,
		PausedAt:         pausedAt,
	}
}

func TestResumePass_ResumesAtExactThreshold(t *testing.T) {
	f := newTickFixture()
	f.states.candidates = nil
	f.states.paused = []domain.EngagementState{
		pausedState(3, ptrTime(f.now.Add(-48*time.Hour))),
	}

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Resumed != 1 {
		t.Fatalf("expected resumed=1 at exactly the threshold, got %d", result.Resumed)
	}
	if len(f.states.resumed) != 1 || f.states.resumed[0] != 3 {
		t.Fatalf("expected lead 3 resumed, got %v", f.states.resumed)
	}
}

func TestResumePass_BelowThresholdStaysPaused(t *testing.T) {
	f := newTickFixture()
	f.states.candidates = nil
	f.states.paused = []domain.EngagementState{
		pausedState(3, ptrTime(f.now.Add(-47*time.Hour))),
	}

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Resumed != 0 {
		t.Fatalf("expected no resume below the threshold, got %d", result.Resumed)
	}
}

func TestResumePass_RecentManualSignalResetsClock(t *testing.T) {
	f := newTickFixture()
	f.states.candidates = nil
	f.states.paused = []domain.EngagementState{
		pausedState(3, ptrTime(f.now.Add(-100*time.Hour))),
	}
	// A sales rep followed up 10h ago: the idle clock restarts there.
	f.followUps.latestManualAt[3] = ptrTime(f.now.Add(-10 * time.Hour))

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Resumed != 0 {
		t.Fatalf("expected the manual follow-up to keep the lead paused, got resumed=%d", result.Resumed)
	}
}

func TestResumePass_ManualOutboundAlsoCounts(t *testing.T) {
	f := newTickFixture()
	f.states.candidates = nil
	f.states.paused = []domain.EngagementState{
		pausedState(3, ptrTime(f.now.Add(-100*time.Hour))),
	}
	f.messages.latestManualAt[3] = ptrTime(f.now.Add(-5 * time.Hour))

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Resumed != 0 {
		t.Fatalf("expected the manual outbound to keep the lead paused, got resumed=%d", result.Resumed)
	}
}

func TestResumePass_NoBaselineStaysPaused(t *testing.T) {
	f := newTickFixture()
	f.states.candidates = nil
	f.states.paused = []domain.EngagementState{
		pausedState(3, nil),
	}

	result, err := f.svc.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick returned error: %v", err)
	}

	if result.Resumed != 0 {
		t.Fatalf("expected no resume without a baseline, got %d", result.Resumed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

//
// Enroll and manual controls
//

func TestEnroll_SetsFirstStepOverride(t *testing.T) {
	f := newTickFixture()
	delay := 24
	f.plans.firstStepDelay = &delay

	state, err := f.svc.Enroll(context.Background(), 1)
	if err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}

	if state.NextSendAt == nil {
		t.Fatalf("expected NextSendAt to be set from the first step delay")
	}
	want := f.now.Add(24 * time.Hour)
	if !state.NextSendAt.Equal(want) {
		t.Fatalf("expected NextSendAt %v, got %v", want, *state.NextSendAt)
	}
}

func TestEnroll_RefusesExistingState(t *testing.T) {
	f := newTickFixture()
	f.states.byLead[1] = &f.states.candidates[0]

	if _, err := f.svc.Enroll(context.Background(), 1); err == nil {
		t.Fatalf("expected error when the lead is already enrolled")
	}
}

func TestPauseManually_RefusesStoppedLead(t *testing.T) {
	f := newTickFixture()
	planID := int64(1)
	f.states.byLead[9] = &domain.EngagementState{
		LeadID: 9,
		Status: domain.EngagementStopped,
		PlanID: &planID,
	}

	if err := f.svc.PauseManually(context.Background(), 9); err == nil {
		t.Fatalf("expected error when pausing a stopped lead")
	}
}

func TestResumeManually_RequiresPausedState(t *testing.T) {
	f := newTickFixture()
	f.states.byLead[1] = &f.states.candidates[0] // active

	if err := f.svc.ResumeManually(context.Background(), 1); err == nil {
		t.Fatalf("expected error when resuming a non-paused lead")
	}
}
