package questions

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/quiz-app/backend/internal/importer"
	"github.com/quiz-app/backend/internal/models"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Import parses a spreadsheet and stores its questions. Nothing is stored
// when parsing fails. A *importer.ParseError is returned unwrapped.
func (s *Service) Import(ctx context.Context, r io.Reader) (*models.UploadResponse, error) {
	parsed, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.SaveAll(ctx, parsed.Questions)
	if err != nil {
		return nil, fmt.Errorf("save questions: %w", err)
	}

	if len(parsed.Skipped) > 0 {
		log.Printf("[questions] import skipped %d of %d rows", len(parsed.Skipped), parsed.TotalRows)
	}
	log.Printf("[questions] imported %d questions", count)

	return &models.UploadResponse{
		Message:     "File uploaded successfully",
		Count:       count,
		Skipped:     len(parsed.Skipped),
		SkippedRows: parsed.Skipped,
	}, nil
}

func (s *Service) Topics(ctx context.Context) ([]string, error) {
	return s.repo.FindDistinctTopics(ctx)
}

func (s *Service) ByTopic(ctx context.Context, topic string) ([]models.Question, error) {
	return s.repo.FindByTopic(ctx, topic)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Question, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) MarkKnown(ctx context.Context, id int64) error {
	return s.repo.SetKnown(ctx, id)
}

func (s *Service) IncrementView(ctx context.Context, id int64) error {
	return s.repo.IncrementView(ctx, id)
}

func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	log.Printf("[questions] cleared all questions")
	return nil
}
