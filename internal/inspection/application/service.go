package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/metrics"
)

const orphanHandlingTimeout = 10 * time.Second

// SubmitCommand carries the raw form fields of one submission.
type SubmitCommand struct {
	StoreName    string
	StoreAddress string
	ItemType     string
	Level        string
	Notes        string
	Photo        *domain.Photo
}

// SubmitResult acknowledges a stored submission.
type SubmitResult struct {
	SubmissionID string
	PhotoURL     string
	Row          domain.Row
}

// SubmissionService describes the intake use-case.
type SubmissionService interface {
	Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error)
}

// ServiceConfig defines dependencies of the submission service.
type ServiceConfig struct {
	Logger       zerolog.Logger
	Uploader     *PhotoUploader
	Formatter    RowFormatter
	Appender     TabularAppender
	Catalog      domain.ItemCatalog
	IntakeRootID string
	Orphans      OrphanRecorder
	Notifier     OrphanNotifier
	Now          Clock
}

type submissionService struct {
	logger       zerolog.Logger
	uploader     *PhotoUploader
	formatter    RowFormatter
	appender     TabularAppender
	catalog      domain.ItemCatalog
	intakeRootID string
	orphans      OrphanRecorder
	notifier     OrphanNotifier
	now          Clock

	notifications sync.WaitGroup
}

// NewSubmissionService wires the intake workflow.
func NewSubmissionService(cfg ServiceConfig) SubmissionService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &submissionService{
		logger:       cfg.Logger,
		uploader:     cfg.Uploader,
		formatter:    cfg.Formatter,
		appender:     cfg.Appender,
		catalog:      cfg.Catalog,
		intakeRootID: cfg.IntakeRootID,
		orphans:      cfg.Orphans,
		notifier:     cfg.Notifier,
		now:          now,
	}
}

func (s *submissionService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	submission, err := s.validate(cmd)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	logger := s.logger.With().
		Str("submission_id", submission.ID).
		Str("store", submission.StoreName).
		Logger()

	var uploaded *domain.UploadedPhoto
	if submission.HasPhoto() {
		if s.uploader == nil {
			metrics.Submissions.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, domain.NewError(domain.KindConfiguration, "upload photo", errors.New("photo storage is not configured"))
		}
		started := time.Now()
		photo, err := s.uploader.Upload(ctx, *submission.Photo, submission.StoreName, s.intakeRootID)
		metrics.StepLatency.WithLabelValues("upload").Observe(time.Since(started).Seconds())
		if err != nil {
			metrics.Submissions.WithLabelValues(outcomeOf(err)).Inc()
			return nil, err
		}
		metrics.PhotoUploads.Inc()
		metrics.PhotoBytes.Add(float64(submission.Photo.Size))
		logger.Info().
			Str("file_id", photo.FileID).
			Str("file_name", photo.DisplayName).
			Str("folder_id", photo.FolderID).
			Msg("photo stored")
		uploaded = &photo
	}

	row := s.formatter.Format(submission, uploaded)

	started := time.Now()
	err = s.appender.AppendRow(ctx, row)
	metrics.StepLatency.WithLabelValues("append").Observe(time.Since(started).Seconds())
	if err != nil {
		appendErr := domain.NewError(domain.KindAppend, "append row", err)
		metrics.Submissions.WithLabelValues(metrics.OutcomeAppend).Inc()
		if uploaded != nil {
			s.handleOrphan(ctx, logger, submission, *uploaded, row, appendErr)
		}
		return nil, appendErr
	}

	metrics.Submissions.WithLabelValues(metrics.OutcomeOK).Inc()
	result := &SubmitResult{SubmissionID: submission.ID, Row: row}
	if uploaded != nil {
		result.PhotoURL = uploaded.ViewLink
	}
	return result, nil
}

func (s *submissionService) validate(cmd SubmitCommand) (domain.Submission, error) {
	storeName := strings.TrimSpace(cmd.StoreName)
	itemType := strings.TrimSpace(cmd.ItemType)
	rawLevel := strings.TrimSpace(cmd.Level)
	if storeName == "" || itemType == "" || rawLevel == "" {
		return domain.Submission{}, domain.ValidationError("Missing required fields")
	}

	level, err := strconv.Atoi(rawLevel)
	if err != nil || level <= 0 {
		return domain.Submission{}, domain.ValidationError("level must be a positive integer")
	}

	canonical, ok := s.catalog.Canonical(itemType)
	if !ok {
		return domain.Submission{}, domain.ValidationError(fmt.Sprintf("unknown item type: %s", itemType))
	}

	submission := domain.Submission{
		ID:           uuid.NewString(),
		StoreName:    storeName,
		StoreAddress: strings.TrimSpace(cmd.StoreAddress),
		ItemType:     canonical,
		Level:        level,
		Notes:        strings.TrimSpace(cmd.Notes),
		ReceivedAt:   s.now().UTC(),
	}
	if cmd.Photo != nil && cmd.Photo.Size > 0 && cmd.Photo.Body != nil {
		submission.Photo = cmd.Photo
	}
	return submission, nil
}

// handleOrphan surfaces a stored photo that has no row.
func (s *submissionService) handleOrphan(ctx context.Context, logger zerolog.Logger, submission domain.Submission, photo domain.UploadedPhoto, row domain.Row, appendErr error) {
	metrics.OrphanedUploads.Inc()

	orphan := domain.OrphanedUpload{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		StoreName:    submission.StoreName,
		StoreAddress: submission.StoreAddress,
		ItemType:     submission.ItemType,
		Level:        submission.Level,
		Notes:        submission.Notes,
		FileID:       photo.FileID,
		FileName:     photo.DisplayName,
		FolderID:     photo.FolderID,
		ViewLink:     photo.ViewLink,
		Row:          row,
		Error:        appendErr.Error(),
		Status:       domain.OrphanStatusPending,
		CreatedAt:    s.now().UTC(),
	}

	logger.Error().
		Err(appendErr).
		Str("orphaned_file_id", photo.FileID).
		Str("orphaned_file_name", photo.DisplayName).
		Str("orphaned_view_link", photo.ViewLink).
		Msg("row append failed after photo upload; photo is orphaned")

	detached := context.WithoutCancel(ctx)
	if s.orphans != nil {
		recordCtx, cancel := context.WithTimeout(detached, orphanHandlingTimeout)
		if err := s.orphans.RecordOrphan(recordCtx, orphan); err != nil {
			logger.Error().Err(err).Str("orphaned_file_id", photo.FileID).Msg("failed to record orphaned upload")
		}
		cancel()
	}
	if s.notifier != nil {
		s.notifications.Add(1)
		go func() {
			defer s.notifications.Done()
			notifyCtx, cancel := context.WithTimeout(detached, orphanHandlingTimeout)
			defer cancel()
			if err := s.notifier.NotifyOrphan(notifyCtx, orphan); err != nil {
				logger.Warn().Err(err).Str("orphaned_file_id", photo.FileID).Msg("failed to notify operators about orphaned upload")
			}
		}()
	}
}

// WaitNotifications blocks until operator notifications started by Submit have
// finished.
func (s *submissionService) WaitNotifications() {
	s.notifications.Wait()
}

func outcomeOf(err error) string {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return metrics.OutcomeInvalid
	case domain.KindStorageBackend:
		return metrics.OutcomeStorageBackend
	case domain.KindUpload:
		return metrics.OutcomeUpload
	case domain.KindAppend:
		return metrics.OutcomeAppend
	default:
		return metrics.OutcomeError
	}
}
