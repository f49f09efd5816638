package services

import (
	"context"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/repository"
)

// UnreadService derives the badge counts. Counts are never stored; each
// call recomputes them from the message store and read markers, so they
// are correct after crashes, clock skew, and concurrent posts.
type UnreadService interface {
	Counts(ctx context.Context, user *models.User) (*models.UnreadCounts, error)
}

type unreadService struct {
	markerRepo repository.ReadMarkerRepository
}

func NewUnreadService(markerRepo repository.ReadMarkerRepository) UnreadService {
	return &unreadService{markerRepo: markerRepo}
}

// Counts runs one grouped query for the fixed rooms and one for the
// user's conversations. A room the user lost access to contributes
// nothing; a channel with no messages past the marker contributes zero.
func (s *unreadService) Counts(ctx context.Context, user *models.User) (*models.UnreadCounts, error) {
	counts := &models.UnreadCounts{}

	rooms := models.AllowedRooms(user)
	if len(rooms) > 0 {
		roomCounts, err := s.markerRepo.RoomUnreadCounts(ctx, user.ID, rooms)
		if err != nil {
			return nil, err
		}
		for _, rc := range roomCounts {
			counts.SetRoom(rc.Room, rc.Count)
		}
	}

	canDirect := user.Role == models.RoleAdmin || user.HasPermission(models.PermDirectMessages)
	canGroups := user.Role == models.RoleAdmin || user.HasPermission(models.PermGroupMessages)
	if canDirect || canGroups {
		convCounts, err := s.markerRepo.ConversationUnreadCounts(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		for _, cc := range convCounts {
			if cc.Type == models.ConversationDirect {
				if canDirect {
					counts.Direct += cc.Count
				}
			} else if canGroups {
				counts.Groups += cc.Count
			}
		}
	}

	counts.Sum()
	return counts, nil
}
