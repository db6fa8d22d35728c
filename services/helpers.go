package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
)

// EventBroadcaster pushes change events to subscribed clients. Satisfied by
// *realtime.Hub; services treat a nil broadcaster as "no subscribers".
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.LogoKey != nil && *user.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.LogoKey)
		if url != "" {
			user.LogoURL = &url
		}
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.LogoKey)
		if url != "" {
			team.LogoURL = &url
		}
	}
}

// captainEntry returns the caller's season entry if they captain the team.
func captainEntry(ctx context.Context, entryRepo repositories.EntryRepository, userID int, team *models.Team) (*models.SeasonEntry, error) {
	entry, err := entryRepo.Get(ctx, userID, team.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return nil, ErrCaptainActionForbidden
		}
		return nil, fmt.Errorf("failed to resolve caller's season entry: %w", err)
	}
	if entry.TeamID == nil || *entry.TeamID != team.ID || !entry.Captain {
		return nil, ErrCaptainActionForbidden
	}
	return entry, nil
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}
