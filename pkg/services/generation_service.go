package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/akovalev/qa-docgen/pkg/domain"
	"github.com/akovalev/qa-docgen/pkg/logger"
)

const maxTitleLength = 40

type DocumentGenerator interface {
	Generate(ctx context.Context, parts []domain.ContentPart, video *domain.MediaFile, previous *domain.DocumentSet) (*domain.DocumentSet, error)
}

type RunRepository interface {
	Save(run domain.Run)
	Get(runID string) (domain.Run, bool)
	Active() (domain.Run, bool)
}

type HistoryRepository interface {
	Append(ctx context.Context, item domain.HistoryItem) error
}

// generationService is the pipeline core: it feeds each accepted video to the
// generator in order, threading the accumulated document set through every
// call, and writes progress into the run repository as it goes. Chunks are
// strictly sequential; each call's input depends on the previous call's
// output.
type generationService struct {
	generator   DocumentGenerator
	runRepo     RunRepository
	historyRepo HistoryRepository

	progressResetDelay time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewGenerationService(
	generator DocumentGenerator,
	runRepo RunRepository,
	historyRepo HistoryRepository,
) *generationService {
	return &generationService{
		generator:          generator,
		runRepo:            runRepo,
		historyRepo:        historyRepo,
		progressResetDelay: 1500 * time.Millisecond,
		cancels:            make(map[string]context.CancelFunc),
	}
}

// Start validates the input, rejects concurrent runs, and launches the
// pipeline in the background. It returns the run id to poll.
func (s *generationService) Start(parts []domain.ContentPart, files []domain.MediaFile) (string, error) {
	if len(parts) == 0 && len(files) == 0 {
		return "", domain.ErrNoInput
	}
	if _, active := s.runRepo.Active(); active {
		return "", domain.ErrRunInFlight
	}

	runID := uuid.NewString()
	s.runRepo.Save(domain.Run{ID: runID, Status: domain.RunStatusRunning})

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[runID] = cancel
	s.mu.Unlock()

	go s.run(ctx, runID, parts, files)

	return runID, nil
}

// Cancel aborts an in-flight run. The run's continuation notices the
// cancellation at its next suspension point and becomes a no-op.
func (s *generationService) Cancel(runID string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (s *generationService) run(ctx context.Context, runID string, parts []domain.ContentPart, files []domain.MediaFile) {
	defer s.removeCancel(runID)
	defer s.scheduleProgressReset(runID)
	defer cleanupSpooledFiles(files)

	slog.Info("Starting generation run", "runID", runID, "parts", len(parts), "videos", len(files))

	docs, err := s.aggregate(ctx, runID, parts, files)
	if err != nil {
		slog.Error("Generation run failed", "runID", runID, logger.Err(err))
		s.update(runID, func(r *domain.Run) {
			r.Status = domain.RunStatusFailed
			r.Error = userMessage(err)
			r.Phase = ""
		})
		return
	}

	item := domain.HistoryItem{
		ID:        "session-" + uuid.NewString(),
		Title:     deriveTitle(parts, files),
		Timestamp: time.Now().UnixMilli(),
		Documents: *docs,
	}
	if err := s.historyRepo.Append(ctx, item); err != nil {
		// History persistence never blocks the user; the result stays on the run.
		slog.Error("Saving history item", "runID", runID, logger.Err(err))
	}

	slog.Info("Generation run complete", "runID", runID, "title", item.Title)
	s.update(runID, func(r *domain.Run) {
		r.Status = domain.RunStatusSucceeded
		r.Phase = ""
		r.HistoryItemID = item.ID
		r.Documents = docs
	})
}

// aggregate produces exactly one document set for the run. Any chunk failure
// aborts the whole run; no partial result is surfaced even though one exists
// internally at the point of failure.
func (s *generationService) aggregate(ctx context.Context, runID string, parts []domain.ContentPart, files []domain.MediaFile) (*domain.DocumentSet, error) {
	if len(parts) == 0 && len(files) == 0 {
		return nil, domain.ErrNoInput
	}

	if len(files) == 0 {
		s.report(runID, 50, "Generating documents from description...")
		docs, err := s.generator.Generate(ctx, parts, nil, nil)
		if err != nil {
			return nil, err
		}
		s.report(runID, 100, "")
		return docs, nil
	}

	var accumulated *domain.DocumentSet
	total := len(files)
	for i := range files {
		file := files[i]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		phase := fmt.Sprintf("Processing video %d of %d: %s", i+1, total, file.Name)
		s.report(runID, float64(i)/float64(total)*100, phase)

		// Content parts ride along on every chunk call; context is
		// re-supplied each time, only the accumulated set carries over.
		docs, err := s.generator.Generate(ctx, parts, &file, accumulated)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		accumulated = docs

		s.report(runID, float64(i+1)/float64(total)*100, phase)
	}

	return accumulated, nil
}

func (s *generationService) report(runID string, progress float64, phase string) {
	s.update(runID, func(r *domain.Run) {
		r.Progress = progress
		r.Phase = phase
	})
}

func (s *generationService) update(runID string, fn func(*domain.Run)) {
	run, ok := s.runRepo.Get(runID)
	if !ok {
		return
	}
	fn(&run)
	s.runRepo.Save(run)
}

// scheduleProgressReset clears the progress indicator a moment after the run
// settles, success or failure, so the next run starts from a clean bar.
func (s *generationService) scheduleProgressReset(runID string) {
	time.AfterFunc(s.progressResetDelay, func() {
		s.update(runID, func(r *domain.Run) {
			r.Progress = 0
		})
	})
}

func (s *generationService) removeCancel(runID string) {
	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	delete(s.cancels, runID)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func deriveTitle(parts []domain.ContentPart, files []domain.MediaFile) string {
	if len(files) > 0 {
		return fmt.Sprintf("%d Video Session", len(files))
	}

	text := strings.TrimSpace(domain.PlainText(parts))
	if text == "" {
		return "New Session"
	}

	runes := []rune(text)
	return lo.TernaryF(len(runes) > maxTitleLength,
		func() string { return string(runes[:maxTitleLength]) + "..." },
		func() string { return text },
	)
}

func userMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Generation was canceled."
	}
	return err.Error()
}

func cleanupSpooledFiles(files []domain.MediaFile) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			slog.Warn("Removing spooled video", "path", f.Path, logger.Err(err))
		}
	}
}
