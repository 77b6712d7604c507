package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/mastery"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
)

// Content types recorded in content views.
const (
	ContentStory = "story"
	ContentVideo = "video"
)

// Service loads a learner's profile and the catalog from the store and
// ranks the catalog for them.
type Service struct {
	store   *store.Store
	catalog *stories.Catalog
	rec     *Recommender
}

// NewService creates a recommendation service.
func NewService(s *store.Store, catalog *stories.Catalog, rec *Recommender) *Service {
	return &Service{store: s, catalog: catalog, rec: rec}
}

// ProfileFor builds the ranking profile of userID. A learner without a
// stored profile gets the starting ability, so new learners are always
// calibrating.
func (s *Service) ProfileFor(ctx context.Context, userID, language, contentType string) (*Profile, error) {
	p := &Profile{
		AbilityEstimate:   learner.InitialAbility,
		AbilityConfidence: learner.InitialConfidence,
		KnownWords:        map[string]bool{},
		Consumed:          map[string]bool{},
	}
	lp, err := s.store.Profiles().Get(ctx, userID, language)
	switch {
	case err == nil:
		p.AbilityEstimate = lp.AbilityEstimate
		p.AbilityConfidence = lp.AbilityConfidence
		p.Interests = lp.Interests
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load profile: %w", err)
	}

	for _, state := range mastery.KnownStates {
		items, err := s.store.Vocabulary().List(ctx, store.VocabFilter{
			UserID:       userID,
			Language:     language,
			MasteryState: string(state),
		})
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		for _, it := range items {
			p.KnownWords[it.Word] = true
		}
	}

	views, err := s.store.Views().List(ctx, userID, contentType)
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	for _, v := range views {
		p.Consumed[v.ContentID] = true
	}
	return p, nil
}

// Stories recommends up to count stories.
func (s *Service) Stories(ctx context.Context, userID, language string, count int, now time.Time) (Result[stories.Summary], error) {
	p, err := s.ProfileFor(ctx, userID, language, ContentStory)
	if err != nil {
		return Result[stories.Summary]{}, err
	}
	list, err := s.catalog.List(ctx, store.ContentFilter{Language: language})
	if err != nil {
		return Result[stories.Summary]{}, err
	}
	if list == nil {
		list = []stories.Summary{}
	}
	res := Recommend(s.rec, list, p, language, count, Options{UserID: userID, Now: now})
	metrics.RecordRecommendation(ContentStory, res.Reason)
	return res, nil
}

// Videos recommends up to count videos.
func (s *Service) Videos(ctx context.Context, userID, language string, count int, now time.Time) (Result[stories.Video], error) {
	p, err := s.ProfileFor(ctx, userID, language, ContentVideo)
	if err != nil {
		return Result[stories.Video]{}, err
	}
	list, err := s.catalog.Videos(ctx, store.ContentFilter{Language: language})
	if err != nil {
		return Result[stories.Video]{}, err
	}
	if list == nil {
		list = []stories.Video{}
	}
	res := Recommend(s.rec, list, p, language, count, Options{UserID: userID, Now: now})
	metrics.RecordRecommendation(ContentVideo, res.Reason)
	return res, nil
}
