package services

import (
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/samber/lo"
)

const (
	ModerateApprove = "approve"
	ModerateReject  = "reject"
)

// CanCompose lets members post when the group allows member posts. Roles do
// not matter, a group with member posts turned off takes no new posts.
func CanCompose(group *models.Group, userID string) bool {
	if group == nil {
		return false
	}
	return IsMember(group, userID) && group.Settings.AllowMemberPosts
}

func ViewerCanCompose(group *models.Group, viewer models.Viewer) bool {
	return viewerMatches(viewer, func(id string) bool { return CanCompose(group, id) })
}

// InitialModerationState is decided once, when the post is created.
func InitialModerationState(group *models.Group) models.ModerationState {
	if group != nil && group.Settings.RequireApproval {
		return models.ModerationPendingApproval
	}
	return models.ModerationVisible
}

// NextModerationState applies a moderation decision to a post's current state.
// Only pending posts can be moderated; visible is terminal.
func NextModerationState(current models.ModerationState, decision string) (models.ModerationState, error) {
	if current != models.ModerationPendingApproval {
		return current, invalid("moderation", "only posts pending approval can be moderated")
	}
	switch decision {
	case ModerateApprove:
		return models.ModerationVisible, nil
	case ModerateReject:
		return models.ModerationDeleted, nil
	default:
		return current, invalid("decision", "must be approve or reject")
	}
}

// IsPostVisibleTo hides pending group posts from everyone but their author and
// the group's moderators. groups is keyed by group id.
func IsPostVisibleTo(post models.Post, viewer models.Viewer, groups map[string]*models.Group) bool {
	if !post.IsPending() {
		return true
	}
	if viewer.Is(post.AuthorID) {
		return true
	}
	return ViewerCanModerate(groups[post.GroupID], viewer)
}

func VisiblePosts(posts []models.Post, viewer models.Viewer, groups map[string]*models.Group) []models.Post {
	return lo.Filter(posts, func(item models.Post, _ int) bool {
		return IsPostVisibleTo(item, viewer, groups)
	})
}
