package service

import (
	"context"
	"errors"
	"sort"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/singlepass"
	"ai-postgen-be/pkg/store"
)

type IGenerationService interface {
	// Generate runs single-pass mode.
	Generate(ctx context.Context, req singlepass.Request) (*singlepass.Result, error)
	// GenerateStream starts or resumes a multi-pass run.
	GenerateStream(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, string, error)
	// GenerateMultiPass runs every remaining pass and returns the result.
	GenerateMultiPass(ctx context.Context, req pipeline.Request) (*dto.MultiPassResponse, error)
	GetSession(ctx context.Context, sessionID string) (*store.GenerationSession, error)
	ListSessions(ctx context.Context) ([]dto.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID string) (bool, error)
}

type generationService struct {
	singlePass *singlepass.Generator
	pipeline   *pipeline.Pipeline
	sessions   contract.SessionRepository
}

func NewGenerationService(singlePass *singlepass.Generator, p *pipeline.Pipeline, sessions contract.SessionRepository) IGenerationService {
	return &generationService{singlePass: singlePass, pipeline: p, sessions: sessions}
}

func (s *generationService) Generate(ctx context.Context, req singlepass.Request) (*singlepass.Result, error) {
	return s.singlePass.Generate(ctx, req)
}

func (s *generationService) GenerateStream(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, string, error) {
	return s.pipeline.GenerateStream(ctx, req)
}

func (s *generationService) GenerateMultiPass(ctx context.Context, req pipeline.Request) (*dto.MultiPassResponse, error) {
	session, err := s.pipeline.Generate(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	res := &dto.MultiPassResponse{
		SessionId: session.SessionID,
		Content:   session.FinalContent(),
		Session:   session,
	}
	if session.OutlinePass != nil {
		res.Title = session.OutlinePass.Title
		res.Hashtags = session.OutlinePass.Hashtags
	}
	if session.ScoringPass != nil {
		score := session.ScoringPass.Score
		res.Score = &score
	}
	return res, nil
}

func (s *generationService) GetSession(ctx context.Context, sessionID string) (*store.GenerationSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ListSessions skips sessions that expire between listing and reading.
func (s *generationService) ListSessions(ctx context.Context) ([]dto.SessionSummary, error) {
	ids, err := s.sessions.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionSummary, 0, len(ids))
	for _, id := range ids {
		session, err := s.sessions.Get(ctx, id)
		if errors.Is(err, apperror.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, dto.NewSessionSummary(session))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdatedAt.After(out[j].LastUpdatedAt)
	})
	return out, nil
}

func (s *generationService) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.Delete(ctx, sessionID)
}
