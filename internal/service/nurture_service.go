package service

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadpulse-id/outreach-service/internal/domain"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
	"github.com/leadpulse-id/outreach-service/pkg/template"
)

// Small internal interfaces so the tick can be tested without a real
// database, cache or gateway.
type engagementStore interface {
	GetByLeadID(ctx context.Context, leadID int64) (*domain.EngagementState, error)
	ListPaused(ctx context.Context) ([]domain.EngagementState, error)
	ListSendCandidates(ctx context.Context, limit int) ([]domain.EngagementState, error)
	Create(ctx context.Context, leadID, planID int64, startedAt time.Time, nextSendAt *time.Time) (*domain.EngagementState, error)
	Pause(ctx context.Context, leadID int64, reason domain.PauseReason, manual bool, at time.Time) error
	Resume(ctx context.Context, leadID int64) error
	ApplySendResult(ctx context.Context, p domain.SendCommit) (int64, error)
}

type planCatalog interface {
	GetPlan(ctx context.Context, id int64) (*domain.SequencePlan, error)
	PickPlanForLead(ctx context.Context, productID, sourceID *int64, statusCode string) (*domain.SequencePlan, error)
	GetStep(ctx context.Context, planID int64, order int) (*domain.SequenceStep, error)
	GetStepWithTemplate(ctx context.Context, planID int64, order int) (*domain.StepWithTemplate, error)
	GetFirstStepDelayHours(ctx context.Context, planID int64) (*int, error)
}

type leadDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	GetSalesUser(ctx context.Context, id int64) (*domain.SalesUser, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type engagementSignals interface {
	HasInboundSince(ctx context.Context, leadID int64, since time.Time) (bool, error)
	LatestManualOutboundAt(ctx context.Context, leadID int64) (*time.Time, error)
}

type followUpSignals interface {
	HasManualSince(ctx context.Context, leadID int64, since time.Time) (bool, error)
	LatestManualAt(ctx context.Context, leadID int64) (*time.Time, error)
}

type settingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

type settingsCache interface {
	CacheSettings(ctx context.Context, settings *domain.Settings) error
	GetCachedSettings(ctx context.Context) (*domain.Settings, error)
	CacheSentStep(ctx context.Context, dedupKey, externalMessageID string) error
}

type dispatchGateway interface {
	EnsureReady(ctx context.Context, ownerID string) error
	SendText(ctx context.Context, ownerID, to, body string, meta map[string]string) (string, error)
	SendDocument(ctx context.Context, ownerID, to, fileURL, fileName, mimeType, caption string) (string, error)
}

type eventPublisher interface {
	Publish(eventType string, payload map[string]any)
}

// NurtureService runs the tick-triggered nurturing engine: the resume pass
// over paused leads and the send pass over due active leads.
type NurtureService struct {
	states    engagementStore
	plans     planCatalog
	leads     leadDirectory
	messages  engagementSignals
	followUps followUpSignals
	settings  settingsStore
	cache     settingsCache
	gateway   dispatchGateway
	notifier  eventPublisher

	// Injected clock so threshold boundaries are testable.
	nowFn func() time.Time
}

func NewNurtureService(
	states engagementStore,
	plans planCatalog,
	leads leadDirectory,
	messages engagementSignals,
	followUps followUpSignals,
	settings settingsStore,
	cache settingsCache,
	gateway dispatchGateway,
	notifier eventPublisher,
) *NurtureService {
	return &NurtureService{
		states:    states,
		plans:     plans,
		leads:     leads,
		messages:  messages,
		followUps: followUps,
		settings:  settings,
		cache:     cache,
		gateway:   gateway,
		notifier:  notifier,
		nowFn:     time.Now,
	}
}

// RunTick executes one bounded nurture tick. Per-lead failures land in the
// result's error list; only infrastructure failures return an error.
func (s *NurtureService) RunTick(ctx context.Context) (*domain.TickResult, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	result := &domain.TickResult{Errors: []domain.TickError{}}

	if !settings.AutoNurtureEnabled {
		logger.Debugf("Auto-nurturing disabled, tick is a no-op")
		return result, nil
	}

	if err := s.resumePass(ctx, settings, result); err != nil {
		return nil, err
	}

	if err := s.sendPass(ctx, settings, result); err != nil {
		return nil, err
	}

	logger.Infof("Tick done: processed %d, sent %d, resumed %d, paused %d, %d errors",
		result.Processed, result.SentCount, result.Resumed, result.Paused, len(result.Errors))

	if s.notifier != nil {
		s.notifier.Publish("nurture.tick", map[string]any{
			"processed": result.Processed,
			"sentCount": result.SentCount,
			"resumed":   result.Resumed,
			"paused":    result.Paused,
			"errors":    len(result.Errors),
		})
	}

	return result, nil
}

func (s *NurtureService) loadSettings(ctx context.Context) (*domain.Settings, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCachedSettings(ctx)
		if err != nil {
			logger.Warnf("Settings cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheSettings(ctx, settings); err != nil {
			logger.Warnf("Settings cache write failed: %v", err)
		}
	}

	return settings, nil
}

// resumePass reactivates paused leads whose idle window has fully elapsed.
// The baseline is the later of the most recent manual signal and paused_at;
// with no baseline at all the lead stays paused.
func (s *NurtureService) resumePass(ctx context.Context, settings *domain.Settings, result *domain.TickResult) error {
	states, err := s.states.ListPaused(ctx)
	if err != nil {
		return fmt.Errorf("failed to list paused leads: %w", err)
	}

	now := s.nowFn()
	threshold := time.Duration(settings.IdleThresholdHours) * time.Hour

	for _, state := range states {
		lastFollowUp, err := s.followUps.LatestManualAt(ctx, state.LeadID)
		if err != nil {
			result.Errors = append(result.Errors, domain.TickError{LeadID: state.LeadID, Reason: err.Error()})
			continue
		}

		lastManualMsg, err := s.messages.LatestManualOutboundAt(ctx, state.LeadID)
		if err != nil {
			result.Errors = append(result.Errors, domain.TickError{LeadID: state.LeadID, Reason: err.Error()})
			continue
		}

		baseline := resumeBaseline(state.PausedAt, lastFollowUp, lastManualMsg)
		if baseline == nil {
			continue
		}

		if now.Sub(*baseline) < threshold {
			continue
		}

		if err := s.states.Resume(ctx, state.LeadID); err != nil {
			result.Errors = append(result.Errors, domain.TickError{LeadID: state.LeadID, Reason: err.Error()})
			continue
		}

		logger.Infof("Lead %d idle for %dh+, resumed nurturing", state.LeadID, settings.IdleThresholdHours)
		result.Resumed++
	}

	return nil
}

// sendPass evaluates a bounded batch of active, enrolled leads. Each lead is
// independent: one lead's failure never stops the rest of the batch.
func (s *NurtureService) sendPass(ctx context.Context, settings *domain.Settings, result *domain.TickResult) error {
	candidates, err := s.states.ListSendCandidates(ctx, settings.NurtureBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list send candidates: %w", err)
	}

	for i := range candidates {
		state := candidates[i]
		result.Processed++

		outcome, err := s.processCandidate(ctx, settings, &state)
		if err != nil {
			logger.Warnf("Lead %d nurture evaluation failed: %v", state.LeadID, err)
			result.Errors = append(result.Errors, domain.TickError{LeadID: state.LeadID, Reason: err.Error()})
			continue
		}

		switch outcome {
		case outcomeSent:
			result.SentCount++
		case outcomePaused:
			result.Paused++
		}
	}

	return nil
}

type candidateOutcome int

const (
	outcomeSkipped candidateOutcome = iota
	outcomeSent
	outcomePaused
)

func (s *NurtureService) processCandidate(
	ctx context.Context,
	settings *domain.Settings,
	state *domain.EngagementState,
) (candidateOutcome, error) {
	now := s.nowFn()
	nextOrder := state.CurrentStepIndex + 1

	sw, err := s.plans.GetStepWithTemplate(ctx, *state.PlanID, nextOrder)
	if err != nil {
		return outcomeSkipped, err
	}
	if sw == nil {
		// Sequence exhausted; nothing to do this tick.
		return outcomeSkipped, nil
	}

	if issue := dueGate(state, &sw.Step, now); issue != nil {
		return outcomeSkipped, nil
	}

	// Engagement always wins over a due send.
	engaged, err := s.leadEngagedSince(ctx, state)
	if err != nil {
		return outcomeSkipped, err
	}
	if engaged {
		if err := s.states.Pause(ctx, state.LeadID, domain.PauseReasonSystemRule, false, now); err != nil {
			return outcomeSkipped, err
		}
		logger.Infof("Lead %d engaged since last send, paused", state.LeadID)
		return outcomePaused, nil
	}

	lead, err := s.leads.GetByID(ctx, state.LeadID)
	if err != nil {
		return outcomeSkipped, err
	}
	if lead == nil {
		return outcomeSkipped, fmt.Errorf("lead %d not found", state.LeadID)
	}

	if issues := contactGate(lead); len(issues) > 0 {
		return outcomeSkipped, fmt.Errorf("%s", issues[0].Hint)
	}

	if issues := templateGate(sw); len(issues) > 0 {
		return outcomeSkipped, fmt.Errorf("%s", issues[0].Hint)
	}

	sales, err := s.leads.GetSalesUser(ctx, *lead.SalesUserID)
	if err != nil {
		return outcomeSkipped, err
	}
	if sales == nil {
		return outcomeSkipped, fmt.Errorf("sales user %d not found", *lead.SalesUserID)
	}

	body, err := s.renderBody(ctx, sw.Template.Body, lead, sales, settings)
	if err != nil {
		return outcomeSkipped, err
	}
	if strings.TrimSpace(body) == "" {
		return outcomeSkipped, fmt.Errorf("template %q rendered empty for lead %d", sw.Template.Title, lead.ID)
	}

	if err := s.gateway.EnsureReady(ctx, sales.WAOwnerID); err != nil {
		return outcomeSkipped, err
	}

	dedupKey := fmt.Sprintf("%d:%d", lead.ID, nextOrder)
	meta := map[string]string{
		"dedupKey":  dedupKey,
		"attemptId": uuid.NewString(),
		"source":    "nurture",
	}

	externalID, err := s.dispatch(ctx, sales.WAOwnerID, *lead.Phone, body, sw.Template, meta)
	if err != nil {
		// No state change: the lead is reconsidered on the next eligible tick.
		return outcomeSkipped, err
	}

	following, err := s.plans.GetStep(ctx, *state.PlanID, nextOrder+1)
	if err != nil {
		return outcomeSkipped, err
	}

	commit := domain.SendCommit{
		LeadID:            lead.ID,
		StepOrder:         nextOrder,
		Content:           body,
		ExternalMessageID: externalID,
		DedupKey:          dedupKey,
		Note:              fmt.Sprintf("Automated nurture step %d (%s)", nextOrder, sw.Template.Title),
		SentAt:            now,
		SequenceComplete:  following == nil,
	}

	if _, err := s.states.ApplySendResult(ctx, commit); err != nil {
		// The gateway may have delivered; the dedup key makes the retry
		// detectable downstream.
		return outcomeSkipped, fmt.Errorf("send delivered but commit failed: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.CacheSentStep(ctx, dedupKey, externalID); err != nil {
			logger.Warnf("Failed to cache sent step %s: %v", dedupKey, err)
		}
	}

	if s.notifier != nil {
		s.notifier.Publish("nurture.sent", map[string]any{
			"leadId":    lead.ID,
			"stepOrder": nextOrder,
			"dedupKey":  dedupKey,
		})
	}

	logger.Infof("Lead %d advanced to step %d (external id %s)", lead.ID, nextOrder, externalID)

	return outcomeSent, nil
}

func (s *NurtureService) leadEngagedSince(ctx context.Context, state *domain.EngagementState) (bool, error) {
	since := engagementBaseline(state)
	if since == nil {
		return false, nil
	}

	inbound, err := s.messages.HasInboundSince(ctx, state.LeadID, *since)
	if err != nil {
		return false, err
	}
	if inbound {
		return true, nil
	}

	return s.followUps.HasManualSince(ctx, state.LeadID, *since)
}

func (s *NurtureService) renderBody(
	ctx context.Context,
	templateBody string,
	lead *domain.Lead,
	sales *domain.SalesUser,
	settings *domain.Settings,
) (string, error) {
	tplCtx := template.Context{
		Lead:    lead,
		Sales:   sales,
		Company: settings.CompanyName,
	}

	if lead.ProductID != nil {
		product, err := s.leads.GetProduct(ctx, *lead.ProductID)
		if err != nil {
			return "", err
		}
		tplCtx.Product = product
	}

	return template.RenderNurture(templateBody, tplCtx), nil
}

// dispatch sends via the gateway: a document with caption when the template
// carries media, plain text otherwise.
func (s *NurtureService) dispatch(
	ctx context.Context,
	ownerID, to, body string,
	tpl *domain.MessageTemplate,
	meta map[string]string,
) (string, error) {
	if tpl.MediaURL != nil && strings.TrimSpace(*tpl.MediaURL) != "" {
		fileName := path.Base(*tpl.MediaURL)
		mimeType := mime.TypeByExtension(path.Ext(fileName))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return s.gateway.SendDocument(ctx, ownerID, to, *tpl.MediaURL, fileName, mimeType, body)
	}

	return s.gateway.SendText(ctx, ownerID, to, body, meta)
}

// Enroll creates the engagement state for a lead that qualified for
// nurturing. Refuses when a state already exists: one plan per lead, ever,
// unless it is explicitly re-enrolled through master data.
func (s *NurtureService) Enroll(ctx context.Context, leadID int64) (*domain.EngagementState, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("lead %d not found", leadID)
	}

	existing, err := s.states.GetByLeadID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("lead %d already has an engagement state (status %s)", leadID, existing.Status)
	}

	plan, err := s.plans.PickPlanForLead(ctx, lead.ProductID, lead.SourceID, lead.StatusCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("no active sequence plan matches lead %d", leadID)
	}

	now := s.nowFn()

	var nextSendAt *time.Time
	if delay, err := s.plans.GetFirstStepDelayHours(ctx, plan.ID); err != nil {
		return nil, err
	} else if delay != nil {
		at := now.Add(time.Duration(*delay) * time.Hour)
		nextSendAt = &at
	}

	state, err := s.states.Create(ctx, leadID, plan.ID, now, nextSendAt)
	if err != nil {
		return nil, err
	}

	logger.Infof("Lead %d enrolled in plan %d (%s)", leadID, plan.ID, plan.Name)

	if s.notifier != nil {
		s.notifier.Publish("nurture.enrolled", map[string]any{
			"leadId": leadID,
			"planId": plan.ID,
		})
	}

	return state, nil
}

// PauseManually is the operator override, outside the step machinery.
func (s *NurtureService) PauseManually(ctx context.Context, leadID int64) error {
	state, err := s.states.GetByLeadID(ctx, leadID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("lead %d has no engagement state", leadID)
	}
	if state.Status == domain.EngagementStopped {
		return fmt.Errorf("lead %d nurturing is already stopped", leadID)
	}

	return s.states.Pause(ctx, leadID, domain.PauseReasonManual, true, s.nowFn())
}

// PreviewQuick renders an ad-hoc quick-message body against one lead's data
// without sending anything.
func (s *NurtureService) PreviewQuick(ctx context.Context, leadID int64, body string) (string, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return "", fmt.Errorf("lead %d not found", leadID)
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return "", err
	}

	tplCtx := template.Context{
		Lead:    lead,
		Company: settings.CompanyName,
	}

	if lead.SalesUserID != nil {
		sales, err := s.leads.GetSalesUser(ctx, *lead.SalesUserID)
		if err != nil {
			return "", err
		}
		tplCtx.Sales = sales
	}

	if lead.ProductID != nil {
		product, err := s.leads.GetProduct(ctx, *lead.ProductID)
		if err != nil {
			return "", err
		}
		tplCtx.Product = product
	}

	return template.RenderQuick(body, tplCtx), nil
}

// ResumeManually clears an operator pause.
func (s *NurtureService) ResumeManually(ctx context.Context, leadID int64) error {
	state, err := s.states.GetByLeadID(ctx, leadID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("lead %d has no engagement state", leadID)
	}
	if state.Status != domain.EngagementPaused {
		return fmt.Errorf("lead %d is not paused", leadID)
	}

	return s.states.Resume(ctx, leadID)
}
