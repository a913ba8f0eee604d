package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/repository"
	"kiosk/internal/service/transport"
)

// SyncBatchSize limits how many records a single flush replays.
const SyncBatchSize = 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SyncService keeps the local record store and replays undelivered
// registration confirmations to the server.
type SyncService struct {
	interval time.Duration
	limiter  *rate.Limiter
	repo     repository.RecordRepository
	client   transport.Client
	logger   *logger.Logger
	mu       sync.Mutex
}

// NewSyncService creates a SyncService backed by repo.
func NewSyncService(config *config.Config, logger *logger.Logger, repo repository.RecordRepository, client transport.Client) *SyncService {
	return &SyncService{
		interval: config.SyncInterval,
		limiter:  rate.NewLimiter(rate.Limit(config.SyncRate), 1),
		repo:     repo,
		client:   client,
		logger:   logger,
	}
}

// Run flushes pending records on every tick until ctx is cancelled.
func (s *SyncService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// SaveConfirmation stores a confirmation the terminal could not deliver.
func (s *SyncService) SaveConfirmation(req dto.ConfirmRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode confirmation: %w", err)
	}

	id, err := s.repo.Insert(&model.Record{
		Kind:    model.KindConfirmation,
		Payload: payload,
	})
	if err != nil {
		return err
	}

	s.logger.Warning("💾 Confirmation for registration %s queued as %s", req.RegistrationID, id)
	return nil
}

// SaveVerification appends an audit record of a verification attempt.
// Delivered outcomes are stored already synchronized.
func (s *SyncService) SaveVerification(outcome dto.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode verification: %w", err)
	}

	_, err = s.repo.Insert(&model.Record{
		Kind:         model.KindVerification,
		Cedula:       outcome.Cedula,
		Payload:      payload,
		Synchronized: outcome.OK,
	})
	return err
}

// Flush replays pending confirmations and returns how many were delivered.
func (s *SyncService) Flush(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.GetUnsynchronized(model.KindConfirmation, SyncBatchSize)
	if err != nil {
		s.logger.Error("Error reading pending records: %v", err)
		return 0
	}
	if len(records) == 0 {
		return 0
	}

	delivered := 0
	for _, rec := range records {
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}

		var req dto.ConfirmRequest
		if err := json.Unmarshal(rec.Payload, &req); err != nil {
			s.logger.Error("Dropping corrupt record %s: %v", rec.ID, err)
			s.markSynchronized(rec.ID)
			continue
		}

		ok, result := s.client.ConfirmRegistration(ctx, req)
		if !ok {
			s.logger.Warning("Replay of record %s failed (attempt %d): %s", rec.ID, rec.Attempts+1, result.Error)
			if err := s.repo.IncrementAttempts(rec.ID); err != nil {
				s.logger.Error("Error updating record %s: %v", rec.ID, err)
			}
			continue
		}

		s.markSynchronized(rec.ID)
		delivered++
	}

	s.logger.Info("💾 Synchronized %d/%d pending records", delivered, len(records))
	return delivered
}

func (s *SyncService) markSynchronized(id string) {
	if err := s.repo.MarkSynchronized(id); err != nil {
		s.logger.Error("Error marking record %s synchronized: %v", id, err)
	}
}
