package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadpulse-id/outreach-service/internal/domain"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
	"github.com/leadpulse-id/outreach-service/pkg/template"
)

type blastStore interface {
	CreateJob(ctx context.Context, publicID, message, createdBy string, leadIDs []int64) (*domain.BlastJob, error)
	GetJobByID(ctx context.Context, id int64) (*domain.BlastJob, error)
	ListJobs(ctx context.Context, page, pageSize int) ([]domain.BlastJob, int64, error)
	ListItems(ctx context.Context, jobID int64) ([]domain.BlastItem, error)
	NextJob(ctx context.Context) (*domain.BlastJob, error)
	MarkJobRunning(ctx context.Context, id int64, at time.Time) error
	CompleteJob(ctx context.Context, id int64, at time.Time) error
	NextPendingItem(ctx context.Context, jobID int64) (*domain.BlastItem, error)
	MarkItemSent(ctx context.Context, itemID, jobID, messageID int64) error
	MarkItemFailed(ctx context.Context, itemID, jobID int64, errMsg string, messageID *int64) error
}

type outboundAudit interface {
	CreateOutboundPending(ctx context.Context, leadID int64, content, dedupKey string, automated bool) (int64, error)
	MarkSent(ctx context.Context, id int64, externalMessageID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64) error
}

type leadValidator interface {
	leadDirectory
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

// BlastService owns broadcast jobs: atomic submission and the one-item
// processing step the worker loop drives.
type BlastService struct {
	jobs     blastStore
	leads    leadValidator
	messages outboundAudit
	settings settingsStore
	gateway  dispatchGateway
	notifier eventPublisher

	nowFn func() time.Time
}

func NewBlastService(
	jobs blastStore,
	leads leadValidator,
	messages outboundAudit,
	settings settingsStore,
	gateway dispatchGateway,
	notifier eventPublisher,
) *BlastService {
	return &BlastService{
		jobs:     jobs,
		leads:    leads,
		messages: messages,
		settings: settings,
		gateway:  gateway,
		notifier: notifier,
		nowFn:    time.Now,
	}
}

// SubmitJob creates one job plus its items atomically. Duplicate lead ids are
// collapsed; unknown lead ids reject the whole submission.
func (s *BlastService) SubmitJob(ctx context.Context, message, createdBy string, leadIDs []int64) (*domain.BlastJob, error) {
	unique := dedupeIDs(leadIDs)
	if len(unique) == 0 {
		return nil, fmt.Errorf("blast job needs at least one recipient")
	}

	count, err := s.leads.CountExisting(ctx, unique)
	if err != nil {
		return nil, err
	}
	if count != len(unique) {
		return nil, fmt.Errorf("%d of %d recipient leads do not exist", len(unique)-count, len(unique))
	}

	job, err := s.jobs.CreateJob(ctx, uuid.NewString(), message, createdBy, unique)
	if err != nil {
		return nil, err
	}

	logger.Infof("Blast job %d submitted with %d recipients", job.ID, job.TotalItems)

	if s.notifier != nil {
		s.notifier.Publish("blast.created", map[string]any{
			"jobId":      job.ID,
			"publicId":   job.PublicID,
			"totalItems": job.TotalItems,
		})
	}

	return job, nil
}

func (s *BlastService) GetJob(ctx context.Context, id int64) (*domain.BlastJob, []domain.BlastItem, error) {
	job, err := s.jobs.GetJobByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, nil
	}

	items, err := s.jobs.ListItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return job, items, nil
}

func (s *BlastService) ListJobs(ctx context.Context, page, pageSize int) ([]domain.BlastJob, int64, error) {
	return s.jobs.ListJobs(ctx, page, pageSize)
}

// ProcessNext performs one worker iteration: at most one item of the oldest
// unfinished job. Returns false when there was no work at all.
func (s *BlastService) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.jobs.NextJob(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	now := s.nowFn()

	if job.Status == domain.BlastJobPending {
		if err := s.jobs.MarkJobRunning(ctx, job.ID, now); err != nil {
			return false, err
		}
	}

	item, err := s.jobs.NextPendingItem(ctx, job.ID)
	if err != nil {
		return false, err
	}

	if item == nil {
		// Every item is terminal: the job is deterministically done.
		if err := s.jobs.CompleteJob(ctx, job.ID, now); err != nil {
			return false, err
		}

		logger.Infof("Blast job %d completed", job.ID)

		if s.notifier != nil {
			s.notifier.Publish("blast.completed", map[string]any{
				"jobId": job.ID,
			})
		}

		return true, nil
	}

	s.processItem(ctx, job, item)

	return true, nil
}

// processItem sends one recipient's message. Every failure path marks the
// item failed and returns; a bad item can never abort the job.
func (s *BlastService) processItem(ctx context.Context, job *domain.BlastJob, item *domain.BlastItem) {
	lead, err := s.leads.GetByID(ctx, item.LeadID)
	if err != nil {
		s.failItem(ctx, job, item, nil, err)
		return
	}
	if lead == nil {
		s.failItem(ctx, job, item, nil, fmt.Errorf("lead %d not found", item.LeadID))
		return
	}

	if issues := contactGate(lead); len(issues) > 0 {
		s.failItem(ctx, job, item, nil, fmt.Errorf("%s", issues[0].Hint))
		return
	}

	sales, err := s.leads.GetSalesUser(ctx, *lead.SalesUserID)
	if err != nil {
		s.failItem(ctx, job, item, nil, err)
		return
	}
	if sales == nil {
		s.failItem(ctx, job, item, nil, fmt.Errorf("sales user %d not found", *lead.SalesUserID))
		return
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.failItem(ctx, job, item, nil, err)
		return
	}

	tplCtx := template.Context{
		Lead:    lead,
		Sales:   sales,
		Company: settings.CompanyName,
	}
	if lead.ProductID != nil {
		if product, err := s.leads.GetProduct(ctx, *lead.ProductID); err == nil {
			tplCtx.Product = product
		}
	}

	content := template.RenderNurture(job.Message, tplCtx)
	if strings.TrimSpace(content) == "" {
		s.failItem(ctx, job, item, nil, fmt.Errorf("blast message rendered empty for lead %d", lead.ID))
		return
	}

	dedupKey := fmt.Sprintf("blast:%d:%d", job.ID, item.LeadID)

	// Audit row first, so a crash mid-send leaves a visible pending record.
	messageID, err := s.messages.CreateOutboundPending(ctx, lead.ID, content, dedupKey, true)
	if err != nil {
		s.failItem(ctx, job, item, nil, err)
		return
	}

	if s.notifier != nil {
		s.notifier.Publish("blast.item.sending", map[string]any{
			"jobId":  job.ID,
			"itemId": item.ID,
			"leadId": lead.ID,
		})
	}

	if err := s.gateway.EnsureReady(ctx, sales.WAOwnerID); err != nil {
		s.failItem(ctx, job, item, &messageID, err)
		return
	}

	externalID, err := s.gateway.SendText(ctx, sales.WAOwnerID, *lead.Phone, content, map[string]string{
		"dedupKey": dedupKey,
		"source":   "blast",
	})
	if err != nil {
		s.failItem(ctx, job, item, &messageID, err)
		return
	}

	sentAt := s.nowFn()

	if err := s.messages.MarkSent(ctx, messageID, externalID, sentAt); err != nil {
		logger.Errorf("Failed to mark message %d sent: %v", messageID, err)
	}

	if err := s.jobs.MarkItemSent(ctx, item.ID, job.ID, messageID); err != nil {
		logger.Errorf("Failed to mark blast item %d sent: %v", item.ID, err)
		return
	}

	logger.Infof("Blast item %d sent to lead %d (external id %s)", item.ID, lead.ID, externalID)
}

func (s *BlastService) failItem(
	ctx context.Context,
	job *domain.BlastJob,
	item *domain.BlastItem,
	messageID *int64,
	cause error,
) {
	logger.Warnf("Blast item %d failed: %v", item.ID, cause)

	if messageID != nil {
		if err := s.messages.MarkFailed(ctx, *messageID); err != nil {
			logger.Errorf("Failed to mark message %d failed: %v", *messageID, err)
		}
	}

	if err := s.jobs.MarkItemFailed(ctx, item.ID, job.ID, cause.Error(), messageID); err != nil {
		logger.Errorf("Failed to mark blast item %d failed: %v", item.ID, err)
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	return unique
}
