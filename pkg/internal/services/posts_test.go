package services

import (
	"context"
	"testing"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDraft(groupID string) models.PostDraft {
	return models.PostDraft{
		Title:           "Cacio e pepe",
		Description:     "Three ingredients",
		Ingredients:     "Pasta\nPecorino\nPepper",
		Instructions:    "Boil, toss, serve",
		Category:        "Italian",
		MeatType:        "None",
		PrepTimeMinutes: 15,
		Servings:        2,
		GroupID:         groupID,
	}
}

func TestCreatePostPendingInReviewedGroup(t *testing.T) {
	freezeTime(t)

	group := testGroup(models.GroupSettings{AllowMemberPosts: true, RequireApproval: true})
	group.Members = append(group.Members, member("u-other", models.MemberRoleMember))

	var sent models.PostDraft
	gw := &fakeGateway{respond: func(method string, args ...any) (gateway.Result, error) {
		sent = args[0].(models.PostDraft)
		return ok(`{"recipe": {"_id": "srv-1", "title": "Cacio e pepe", "userId": "u-member", "groupId": "g1"}}`), nil
	}}
	c := newTestCoordinator(gw, viewer("u-member"), []models.Group{group})

	post, err := c.CreatePost(context.Background(), testDraft("g1"))
	require.NoError(t, err)

	assert.Equal(t, "srv-1", post.ID)
	assert.Equal(t, models.ModerationPendingApproval, post.ModerationState)
	assert.Equal(t, models.PostSourceGroup, post.Source)
	assert.Equal(t, "Pasta Club", post.GroupName)
	assert.Equal(t, models.ModerationPendingApproval, sent.ModerationState)
	assert.Equal(t, 1, c.Posts.Len())

	visibleTo := func(as string) bool {
		posts := VisiblePosts(c.Posts.Posts(), viewer(as), c.Groups.Lookup())
		return len(posts) == 1 && posts[0].ID == "srv-1"
	}
	assert.False(t, visibleTo("u-other"))
	assert.True(t, visibleTo("u-member"))
	assert.True(t, visibleTo("u-admin"))

	assert.Len(t, c.Feed(FeedOptions{}), 1)
	assert.Len(t, c.GroupFeed("g1", FeedOptions{}), 1)
}

func TestCreatePostVisibleWithoutReview(t *testing.T) {
	freezeTime(t)

	group := testGroup(models.GroupSettings{AllowMemberPosts: true})
	gw := &fakeGateway{}
	c := newTestCoordinator(gw, viewer("u-member"), []models.Group{group})

	post, err := c.CreatePost(context.Background(), testDraft("g1"))
	require.NoError(t, err)
	assert.Equal(t, models.ModerationVisible, post.ModerationState)
	assert.Contains(t, post.ID, "local-")
}

func TestCreatePostPermissions(t *testing.T) {
	closed := testGroup(models.GroupSettings{AllowMemberPosts: false})

	for _, as := range []string{"u-member", "u-admin", "u-owner", "u-stranger"} {
		gw := &fakeGateway{}
		c := newTestCoordinator(gw, viewer(as), []models.Group{closed})

		_, err := c.CreatePost(context.Background(), testDraft("g1"))
		var permission *PermissionDenied
		assert.ErrorAs(t, err, &permission, as)
		assert.Empty(t, gw.Calls())
		assert.Zero(t, c.Posts.Len())
	}
}

func TestCreatePostRollsBack(t *testing.T) {
	freezeTime(t)

	gw := &fakeGateway{respond: always(rejected("Image too large"), nil)}
	c := newTestCoordinator(gw, viewer("u1"), nil, testPost("r0", "u2"))

	_, err := c.CreatePost(context.Background(), testDraft(""))
	var application *ApplicationFailure
	require.ErrorAs(t, err, &application)

	posts := c.Posts.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "r0", posts[0].ID)
}

func TestCreatePostValidation(t *testing.T) {
	draft := testDraft("")
	draft.Title = "   "
	draft.Category = "Pizza"
	gw := &fakeGateway{}
	c := newTestCoordinator(gw, viewer("u1"), nil)

	_, err := c.CreatePost(context.Background(), draft)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Title", validation.Field)
	assert.Empty(t, gw.Calls())
}

func TestUpdatePost(t *testing.T) {
	post := testPost("r1", "u1")
	post.LikerIDs = []string{"u9"}

	t.Run("author", func(t *testing.T) {
		gw := &fakeGateway{}
		c := newTestCoordinator(gw, viewer("u1"), nil, post)

		draft := testDraft("")
		draft.Title = "Better title"
		updated, err := c.UpdatePost(context.Background(), "r1", draft)
		require.NoError(t, err)
		assert.Equal(t, "Better title", updated.Title)
		assert.Equal(t, []string{"u9"}, updated.LikerIDs)
	})

	t.Run("rollback", func(t *testing.T) {
		gw := &fakeGateway{respond: always(gateway.Result{}, unreachable())}
		c := newTestCoordinator(gw, viewer("u1"), nil, post)

		draft := testDraft("")
		draft.Title = "Better title"
		_, err := c.UpdatePost(context.Background(), "r1", draft)
		assert.True(t, IsRollbackError(err))

		current, _ := c.Posts.Get("r1")
		assert.Equal(t, post, current)
	})

	t.Run("stranger", func(t *testing.T) {
		gw := &fakeGateway{}
		c := newTestCoordinator(gw, viewer("u2"), nil, post)

		_, err := c.UpdatePost(context.Background(), "r1", testDraft(""))
		var permission *PermissionDenied
		assert.ErrorAs(t, err, &permission)
		assert.Empty(t, gw.Calls())
	})
}

func TestDeletePostRestoresPosition(t *testing.T) {
	posts := []models.Post{testPost("r1", "u1"), testPost("r2", "u1"), testPost("r3", "u1")}
	gw := &fakeGateway{respond: always(gateway.Result{}, unreachable())}
	c := newTestCoordinator(gw, viewer("u1"), nil, posts...)

	err := c.DeletePost(context.Background(), "r2")
	assert.True(t, IsRollbackError(err))
	assert.Equal(t, []string{"r1", "r2", "r3"}, postIDs(c.Posts.Posts()))
}

func TestDeletePostPermissions(t *testing.T) {
	group := testGroup(models.GroupSettings{AllowMemberPosts: true})
	post := groupPost("r1", "u-member", models.ModerationVisible)

	tests := map[string]bool{
		"u-member":   true,
		"u-admin":    true,
		"u-owner":    true,
		"u-stranger": false,
	}
	for as, allowed := range tests {
		t.Run(as, func(t *testing.T) {
			gw := &fakeGateway{}
			c := newTestCoordinator(gw, viewer(as), []models.Group{group}, post)

			err := c.DeletePost(context.Background(), "r1")
			if allowed {
				require.NoError(t, err)
				assert.Zero(t, c.Posts.Len())
			} else {
				var permission *PermissionDenied
				require.ErrorAs(t, err, &permission)
				assert.Equal(t, 1, c.Posts.Len())
				assert.Empty(t, gw.Calls())
			}
		})
	}
}

func TestModeratePost(t *testing.T) {
	group := testGroup(models.GroupSettings{AllowMemberPosts: true, RequireApproval: true})
	pending := groupPost("r1", "u-member", models.ModerationPendingApproval)

	t.Run("approve", func(t *testing.T) {
		var patch map[string]any
		gw := &fakeGateway{respond: func(method string, args ...any) (gateway.Result, error) {
			patch = args[1].(map[string]any)
			return ok(`{"id": "r1", "groupId": "g1", "moderationState": "pendingApproval"}`), nil
		}}
		c := newTestCoordinator(gw, viewer("u-admin"), []models.Group{group}, pending)

		require.NoError(t, c.ModeratePost(context.Background(), "r1", ModerateApprove))
		assert.Equal(t, []string{"UpdateRecipe"}, gw.Calls())
		assert.Equal(t, models.ModerationVisible, patch["moderationState"])

		current, _ := c.Posts.Get("r1")
		assert.Equal(t, models.ModerationVisible, current.ModerationState)

		err := c.ModeratePost(context.Background(), "r1", ModerateReject)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("reject", func(t *testing.T) {
		gw := &fakeGateway{}
		c := newTestCoordinator(gw, viewer("u-owner"), []models.Group{group}, pending)

		require.NoError(t, c.ModeratePost(context.Background(), "r1", ModerateReject))
		assert.Equal(t, []string{"DeleteRecipe"}, gw.Calls())
		assert.Zero(t, c.Posts.Len())
	})

	t.Run("member", func(t *testing.T) {
		gw := &fakeGateway{}
		c := newTestCoordinator(gw, viewer("u-member"), []models.Group{group}, pending)

		err := c.ModeratePost(context.Background(), "r1", ModerateApprove)
		var permission *PermissionDenied
		assert.ErrorAs(t, err, &permission)
		assert.Empty(t, gw.Calls())
	})

	t.Run("rollback", func(t *testing.T) {
		gw := &fakeGateway{respond: always(rejected("Already handled"), nil)}
		c := newTestCoordinator(gw, viewer("u-admin"), []models.Group{group}, pending)

		err := c.ModeratePost(context.Background(), "r1", ModerateApprove)
		assert.True(t, IsRollbackError(err))
		current, _ := c.Posts.Get("r1")
		assert.Equal(t, models.ModerationPendingApproval, current.ModerationState)
	})
}

func TestUpdatePostKeepsLikeInFlight(t *testing.T) {
	liking := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{respond: func(method string, args ...any) (gateway.Result, error) {
		switch method {
		case "LikeRecipe":
			close(liking)
			<-release
			return ok(`{"recipe": {"id": "r1", "likes": ["u1"]}}`), nil
		case "UpdateRecipe":
			return ok(`{"recipe": {"id": "r1", "userId": "u1", "title": "Better title", "description": "Three ingredients", "ingredients": "Pasta", "instructions": "Boil", "category": "Italian", "meatType": "None", "servings": 2, "likes": [], "comments": []}}`), nil
		}
		return gateway.Result{Success: true}, nil
	}}
	c := newTestCoordinator(gw, viewer("u1"), nil, testPost("r1", "u1"))

	done := make(chan error, 1)
	go func() {
		_, err := c.ToggleLike(context.Background(), "r1")
		done <- err
	}()
	<-liking

	draft := testDraft("")
	draft.Title = "Better title"
	updated, err := c.UpdatePost(context.Background(), "r1", draft)
	require.NoError(t, err)
	assert.Equal(t, "Better title", updated.Title)
	assert.Equal(t, []string{"u1"}, updated.LikerIDs)

	close(release)
	require.NoError(t, <-done)

	current, _ := c.Posts.Get("r1")
	assert.Equal(t, "Better title", current.Title)
	assert.Equal(t, []string{"u1"}, current.LikerIDs)
}
