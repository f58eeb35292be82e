package services

import (
	"context"

	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/store"
)

// SituationService handles the situation catalogue.
type SituationService struct {
	store store.Store
}

func NewSituationService(s store.Store) *SituationService { return &SituationService{store: s} }

func (s *SituationService) List(ctx context.Context) ([]*model.Situation, error) {
	return s.store.Situations().List(ctx)
}

func (s *SituationService) Get(ctx context.Context, id string) (*model.Situation, error) {
	return s.store.Situations().Get(ctx, id)
}

func (s *SituationService) Update(ctx context.Context, id string, req model.UpdateSituationRequest) (*model.Situation, error) {
	return s.store.Situations().Update(ctx, id, req)
}
