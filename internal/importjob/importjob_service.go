package importjob

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/events"
	"github.com/Lasher77/CompanyDB/internal/importer"
	"github.com/Lasher77/CompanyDB/internal/messaging/kafka"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

// Runner is the import pipeline from this service's point of view.
type Runner interface {
	Run(ctx context.Context, jobID uuid.UUID, path string) (importer.Result, error)
}

// ReindexRunner rebuilds the search index outside any job context.
type ReindexRunner interface {
	Run(ctx context.Context) error
}

//go:generate mockgen -source=importjob_service.go -destination=mock/importjob_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateImportJobRequest) (ImportJobResponse, error)
	GetByID(ctx context.Context, id string) (ImportJobResponse, error)
	List(ctx context.Context) ([]ImportJobResponse, error)
	ListFiles(ctx context.Context) ([]ImportFileInfo, error)
	StartReindex(ctx context.Context) error
}

type service struct {
	db        *gorm.DB
	repo      Repository
	runner    Runner
	reindexer ReindexRunner // nil when search indexing is disabled
	outbox    kafka.OutboxRepository
	dataDir   string
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	runner Runner,
	reindexer ReindexRunner,
	outbox kafka.OutboxRepository,
	dataDir string,
	logger *zap.Logger,
) Service {
	return &service{
		db:        db,
		repo:      repo,
		runner:    runner,
		reindexer: reindexer,
		outbox:    outbox,
		dataDir:   dataDir,
		sf:        &singleflight.Group{},
		logger:    logger.Named("importjob.service"),
	}
}

var ErrJobNotFound = apperror.New(
	apperror.CodeNotFound,
	"Import job not found",
	http.StatusNotFound,
)

// Create validates the file, records the job as pending with its total line
// count, and launches the pipeline in the background. The caller polls the
// job id for progress; nothing here blocks on the import itself.
func (s *service) Create(ctx context.Context, req CreateImportJobRequest) (ImportJobResponse, error) {
	if filepath.Base(req.Filename) != req.Filename {
		return ImportJobResponse{}, apperror.New(apperror.CodeInvalidInput,
			"Filename must not contain path separators", http.StatusBadRequest)
	}
	if !strings.HasSuffix(req.Filename, ".jsonl") {
		return ImportJobResponse{}, apperror.New(apperror.CodeInvalidInput,
			"Only .jsonl files are supported", http.StatusBadRequest)
	}

	path := filepath.Join(s.dataDir, req.Filename)
	if _, err := os.Stat(path); err != nil {
		return ImportJobResponse{}, apperror.New(apperror.CodeNotFound,
			fmt.Sprintf("File not found: %s", req.Filename), http.StatusNotFound)
	}

	totalLines, err := countLines(path)
	if err != nil {
		return ImportJobResponse{}, apperror.Wrap(err, apperror.CodeIOError,
			"Cannot read import file", http.StatusInternalServerError)
	}

	job := &ImportJob{
		ID:         uuid.New(),
		Filename:   req.Filename,
		Status:     StatusPending,
		TotalLines: &totalLines,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return ImportJobResponse{}, err
	}

	go s.runJob(job.ID, path)

	return mapToResponse(*job), nil
}

func (s *service) GetByID(ctx context.Context, id string) (ImportJobResponse, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return ImportJobResponse{}, apperror.New(apperror.CodeInvalidInput,
			"Invalid job id", http.StatusBadRequest)
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ImportJobResponse{}, ErrJobNotFound
		}
		return ImportJobResponse{}, err
	}
	return mapToResponse(*job), nil
}

func (s *service) List(ctx context.Context) ([]ImportJobResponse, error) {
	jobs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]ImportJobResponse, len(jobs))
	for i, job := range jobs {
		res[i] = mapToResponse(job)
	}
	return res, nil
}

// ListFiles scans the data directory for importable dumps. Concurrent calls
// collapse into a single scan.
func (s *service) ListFiles(ctx context.Context) ([]ImportFileInfo, error) {
	v, err, _ := s.sf.Do("import-files", func() (any, error) {
		entries, err := os.ReadDir(s.dataDir)
		if err != nil {
			if os.IsNotExist(err) {
				return []ImportFileInfo{}, nil
			}
			return nil, err
		}

		files := make([]ImportFileInfo, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			files = append(files, ImportFileInfo{
				Filename:  entry.Name(),
				SizeBytes: info.Size(),
				SizeHuman: humanReadableSize(info.Size()),
			})
		}

		sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
		return files, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ImportFileInfo), nil
}

func (s *service) StartReindex(ctx context.Context) error {
	if s.reindexer == nil {
		return apperror.ErrSearchDisabled
	}

	go func() {
		bg := context.Background()
		if err := s.reindexer.Run(bg); err != nil {
			s.logger.Error("reindex failed", zap.Error(err))
			return
		}
		s.emitEvent(bg, "reindex", "reindex.completed", events.ReindexCompletedEvent{
			EventType:  "reindex.completed",
			OccurredAt: time.Now().UTC(),
		})
	}()

	return nil
}

// runJob owns the job state machine for one import. It runs detached from
// the request that created the job; a process restart abandons a running
// job in place and it is never auto-resumed.
func (s *service) runJob(jobID uuid.UUID, path string) {
	ctx := context.Background()
	log := s.logger.With(zap.String("job_id", jobID.String()))

	if err := s.transition(ctx, jobID, StatusRunning); err != nil {
		log.Error("cannot start job", zap.Error(err))
		return
	}

	res, err := s.runner.Run(ctx, jobID, path)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		s.finish(ctx, jobID, res, err)
		return
	}

	s.finish(ctx, jobID, res, nil)
	log.Info("import completed",
		zap.Int("processed_lines", res.ProcessedLines),
		zap.Int("skipped_lines", res.SkippedLines),
		zap.Int("companies_imported", res.CompaniesImported),
		zap.Int("persons_imported", res.PersonsImported),
	)
}

func (s *service) transition(ctx context.Context, jobID uuid.UUID, to Status) error {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.CanTransition(to) {
		return apperror.New(apperror.CodeInvalidState,
			fmt.Sprintf("illegal transition %s -> %s", job.Status, to),
			http.StatusConflict)
	}
	return s.repo.SetStatus(ctx, jobID, to)
}

// finish writes the terminal state and the lifecycle outbox event in one
// transaction.
func (s *service) finish(ctx context.Context, jobID uuid.UUID, res importer.Result, runErr error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		s.logger.Error("cannot load job for terminal update", zap.Error(err))
		return
	}
	if job.Status.Terminal() {
		return
	}

	if res.ProcessedLines > job.ProcessedLines {
		job.ProcessedLines = res.ProcessedLines
	}
	if res.SkippedLines > job.SkippedLines {
		job.SkippedLines = res.SkippedLines
	}
	if res.CompaniesImported > job.CompaniesImported {
		job.CompaniesImported = res.CompaniesImported
	}
	if res.PersonsImported > job.PersonsImported {
		job.PersonsImported = res.PersonsImported
	}
	if res.SearchSyncErr != nil {
		msg := res.SearchSyncErr.Error()
		job.SearchSyncError = &msg
	}
	if res.IndexErr != nil {
		job.Degraded = true
	}

	var event kafka.OutboxEvent
	if runErr != nil {
		job.Status = StatusFailed
		msg := runErr.Error()
		job.ErrorMessage = &msg
		event = s.lifecycleEvent(job, events.ImportFailedEvent{
			EventType:    "import.failed",
			JobID:        job.ID.String(),
			Filename:     job.Filename,
			ErrorMessage: msg,
			OccurredAt:   time.Now().UTC(),
		}, "import.failed")
	} else {
		job.Status = StatusCompleted
		event = s.lifecycleEvent(job, events.ImportCompletedEvent{
			EventType:         "import.completed",
			JobID:             job.ID.String(),
			Filename:          job.Filename,
			ProcessedLines:    job.ProcessedLines,
			SkippedLines:      job.SkippedLines,
			CompaniesImported: job.CompaniesImported,
			PersonsImported:   job.PersonsImported,
			Degraded:          job.Degraded,
			OccurredAt:        time.Now().UTC(),
		}, "import.completed")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, job); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.WithTx(tx).Create(ctx, event)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("terminal job update failed", zap.Error(err))
	}
}

func (s *service) lifecycleEvent(job *ImportJob, payload any, eventType string) kafka.OutboxEvent {
	body, _ := json.Marshal(payload)
	return kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "import_job",
		AggregateID:   job.ID.String(),
		EventType:     eventType,
		Topic:         events.ImportLifecycleTopic,
		Payload:       body,
		Status:        kafka.OutboxStatusPending,
	}
}

func (s *service) emitEvent(ctx context.Context, aggregateID, eventType string, payload any) {
	if s.outbox == nil {
		return
	}
	body, _ := json.Marshal(payload)
	err := s.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "search_index",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         events.ImportLifecycleTopic,
		Payload:       body,
		Status:        kafka.OutboxStatusPending,
	})
	if err != nil {
		s.logger.Warn("outbox event write failed", zap.Error(err))
	}
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func humanReadableSize(size int64) string {
	v := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f TB", v)
}

func mapToResponse(job ImportJob) ImportJobResponse {
	return ImportJobResponse{
		ID:                job.ID.String(),
		Filename:          job.Filename,
		Status:            string(job.Status),
		TotalLines:        job.TotalLines,
		ProcessedLines:    job.ProcessedLines,
		SkippedLines:      job.SkippedLines,
		CompaniesImported: job.CompaniesImported,
		PersonsImported:   job.PersonsImported,
		SearchSyncError:   job.SearchSyncError,
		Degraded:          job.Degraded,
		ErrorMessage:      job.ErrorMessage,
		CreatedAt:         job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         job.UpdatedAt.Format(time.RFC3339),
	}
}
