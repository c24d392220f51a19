package services

import (
	"testing"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanCompose(t *testing.T) {
	open := testGroup(models.GroupSettings{AllowMemberPosts: true})
	closed := testGroup(models.GroupSettings{AllowMemberPosts: false})

	assert.True(t, CanCompose(&open, "u-member"))
	assert.False(t, CanCompose(&open, "u-stranger"))
	assert.False(t, CanCompose(&closed, "u-member"))
	assert.False(t, CanCompose(&closed, "u-admin"))
	assert.False(t, CanCompose(&closed, "u-owner"))
	assert.True(t, CanCompose(&open, "u-owner"))
	assert.False(t, CanCompose(nil, "u-owner"))
}

func TestModerationStateMachine(t *testing.T) {
	reviewed := testGroup(models.GroupSettings{RequireApproval: true})
	unreviewed := testGroup(models.GroupSettings{})

	assert.Equal(t, models.ModerationPendingApproval, InitialModerationState(&reviewed))
	assert.Equal(t, models.ModerationVisible, InitialModerationState(&unreviewed))
	assert.Equal(t, models.ModerationVisible, InitialModerationState(nil))

	next, err := NextModerationState(models.ModerationPendingApproval, ModerateApprove)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationVisible, next)

	next, err = NextModerationState(models.ModerationPendingApproval, ModerateReject)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationDeleted, next)

	_, err = NextModerationState(models.ModerationVisible, ModerateReject)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = NextModerationState(models.ModerationPendingApproval, "shrug")
	assert.ErrorAs(t, err, &validation)
}

func TestPendingPostVisibility(t *testing.T) {
	group := testGroup(models.GroupSettings{AllowMemberPosts: true, RequireApproval: true})
	group.Members = append(group.Members, member("u-other", models.MemberRoleMember))
	groups := map[string]*models.Group{group.ID: &group}

	pending := groupPost("p1", "u-member", InitialModerationState(&group))
	require.Equal(t, models.ModerationPendingApproval, pending.ModerationState)
	visible := groupPost("p2", "u-other", models.ModerationVisible)
	posts := []models.Post{pending, visible}

	ids := func(as string) []string {
		return lo.Map(VisiblePosts(posts, viewer(as), groups), func(item models.Post, _ int) string {
			return item.ID
		})
	}

	assert.Equal(t, []string{"p2"}, ids("u-other"))
	assert.Equal(t, []string{"p1", "p2"}, ids("u-member"))
	assert.Equal(t, []string{"p1", "p2"}, ids("u-admin"))
	assert.Equal(t, []string{"p1", "p2"}, ids("u-owner"))
	assert.Equal(t, []string{"p2"}, ids(""))

	// Without the group loaded only the author sees the pending post.
	assert.False(t, IsPostVisibleTo(pending, viewer("u-admin"), nil))
	assert.True(t, IsPostVisibleTo(pending, viewer("u-member"), nil))
}
