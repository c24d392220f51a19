package services

import (
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/samber/lo"
)

const (
	RelationshipNone    = "none"
	RelationshipPending = "pending"
	RelationshipMember  = "member"
	RelationshipAdmin   = "admin"
	RelationshipOwner   = "owner"
)

func findMember(group *models.Group, userID string) (models.Membership, bool) {
	if group == nil || len(userID) == 0 {
		return models.Membership{}, false
	}
	return lo.Find(group.Members, func(item models.Membership) bool {
		return item.UserID == userID
	})
}

func IsMember(group *models.Group, userID string) bool {
	_, ok := findMember(group, userID)
	return ok
}

// IsAdmin is true for the admin role only. The owner is not an admin here,
// use CanModerate when either should pass.
func IsAdmin(group *models.Group, userID string) bool {
	member, ok := findMember(group, userID)
	return ok && member.Role == models.MemberRoleAdmin
}

func IsCreator(group *models.Group, userID string) bool {
	if group == nil || len(userID) == 0 {
		return false
	}
	return group.CreatorID == userID
}

func HasPendingRequest(group *models.Group, userID string) bool {
	if group == nil || len(userID) == 0 {
		return false
	}
	return lo.ContainsBy(group.PendingRequests, func(item models.JoinRequest) bool {
		return item.UserID == userID
	})
}

func CanModerate(group *models.Group, userID string) bool {
	return IsAdmin(group, userID) || IsCreator(group, userID)
}

func CanPromote(group *models.Group, userID string) bool {
	return IsCreator(group, userID)
}

func RoleOf(group *models.Group, userID string) (models.MemberRole, bool) {
	if IsCreator(group, userID) {
		return models.MemberRoleOwner, true
	}
	member, ok := findMember(group, userID)
	return member.Role, ok
}

func Relationship(group *models.Group, userID string) string {
	switch {
	case IsCreator(group, userID):
		return RelationshipOwner
	case IsAdmin(group, userID):
		return RelationshipAdmin
	case IsMember(group, userID):
		return RelationshipMember
	case HasPendingRequest(group, userID):
		return RelationshipPending
	default:
		return RelationshipNone
	}
}

// The viewer forms below accept any of the viewer's admissible ids.

func viewerMatches(viewer models.Viewer, check func(string) bool) bool {
	return lo.ContainsBy(viewer.IDs(), check)
}

func ViewerIsMember(group *models.Group, viewer models.Viewer) bool {
	return viewerMatches(viewer, func(id string) bool { return IsMember(group, id) })
}

func ViewerCanModerate(group *models.Group, viewer models.Viewer) bool {
	return viewerMatches(viewer, func(id string) bool { return CanModerate(group, id) })
}

func ViewerCanPromote(group *models.Group, viewer models.Viewer) bool {
	return viewerMatches(viewer, func(id string) bool { return CanPromote(group, id) })
}

func ViewerHasPendingRequest(group *models.Group, viewer models.Viewer) bool {
	return viewerMatches(viewer, func(id string) bool { return HasPendingRequest(group, id) })
}

// viewerMemberID returns the id under which the viewer is a member of the group.
func viewerMemberID(group *models.Group, viewer models.Viewer) (string, bool) {
	return lo.Find(viewer.IDs(), func(id string) bool {
		return IsMember(group, id)
	})
}
