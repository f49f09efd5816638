package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/repository"
)

// ReadStateService moves read watermarks forward. Markers only advance;
// repeated or out-of-order marks are harmless.
type ReadStateService interface {
	// MarkRead stamps the channel read up to boundary. A zero boundary
	// means "now". Marking a channel the user cannot access is rejected.
	MarkRead(ctx context.Context, user *models.User, channelID string, boundary time.Time) error
	// MarkAllRead stamps "now" on every channel the user can see: their
	// policy-eligible rooms plus every conversation they belong to.
	MarkAllRead(ctx context.Context, user *models.User) error
	Marker(ctx context.Context, userID, channelID string) (*models.ReadMarker, error)
}

type readStateService struct {
	markerRepo repository.ReadMarkerRepository
	convRepo   repository.ConversationRepository
}

func NewReadStateService(markerRepo repository.ReadMarkerRepository, convRepo repository.ConversationRepository) ReadStateService {
	return &readStateService{markerRepo: markerRepo, convRepo: convRepo}
}

func (s *readStateService) MarkRead(ctx context.Context, user *models.User, channelID string, boundary time.Time) error {
	if channelID == "" {
		return fmt.Errorf("%w: committee is required", pkg.ErrBadRequest)
	}

	if models.IsRoom(channelID) {
		if !models.CanAccessRoom(user, channelID) {
			return fmt.Errorf("%w: no access to %s", pkg.ErrForbidden, channelID)
		}
	} else {
		member, err := s.convRepo.IsParticipant(ctx, channelID, user.ID)
		if err != nil {
			return err
		}
		if !member {
			return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
		}
	}

	if boundary.IsZero() {
		boundary = time.Now().UTC()
	}
	return s.markerRepo.Upsert(ctx, user.ID, channelID, boundary)
}

func (s *readStateService) MarkAllRead(ctx context.Context, user *models.User) error {
	channels := models.AllowedRooms(user)

	convIDs, err := s.convRepo.IDsForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	channels = append(channels, convIDs...)

	if len(channels) == 0 {
		return nil
	}
	return s.markerRepo.UpsertAll(ctx, user.ID, channels, time.Now().UTC())
}

func (s *readStateService) Marker(ctx context.Context, userID, channelID string) (*models.ReadMarker, error) {
	return s.markerRepo.Get(ctx, userID, channelID)
}
