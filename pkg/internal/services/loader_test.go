package services

import (
	"context"
	"errors"
	"testing"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remote serves a small recipe network: two groups, g1 joined by u1 and g2 not.
func remote(failing ...string) responder {
	return func(method string, args ...any) (gateway.Result, error) {
		switch method {
		case "ListRecipes":
			query := args[0].(gateway.RecipeQuery)
			for _, id := range failing {
				if query.GroupID == id {
					return rejected("Group recipes unavailable"), nil
				}
			}
			switch query.GroupID {
			case "":
				return ok(`{"recipes": [
					{"_id": "r1", "title": "Toast", "userId": "u1", "createdAt": "2024-11-01T00:00:00Z"},
					{"_id": "r2", "title": "Ramen", "userId": "u2", "groupId": "g1", "createdAt": "2024-11-02T00:00:00Z"}
				]}`), nil
			case "g1":
				return ok(`[
					{"_id": "r2", "title": "Ramen", "userId": "u2", "createdAt": "2024-11-02T00:00:00Z"},
					{"_id": "r3", "title": "Gnocchi", "userId": "u2", "moderationState": "pendingApproval", "createdAt": "2024-11-03T00:00:00Z"},
					{"_id": "r4", "title": "Risotto", "userId": "u3", "createdAt": "2024-11-04T00:00:00Z"}
				]`), nil
			}
			return ok(`[]`), nil
		case "ListGroups":
			return ok(`{"groups": [
				{"_id": "g1", "name": "Pasta Club", "creatorId": "u9", "members": [{"userId": "u1"}]},
				{"_id": "g2", "name": "Grill Crew", "creatorId": "u8"}
			]}`), nil
		case "GetGroup":
			return ok(`{"group": {"_id": "g1", "name": "Pasta Club", "creatorId": "u9", "members": [{"userId": "u1"}]}}`), nil
		}
		return gateway.Result{Success: true}, nil
	}
}

func TestRefreshFeedComposesSources(t *testing.T) {
	freezeTime(t)

	gw := &fakeGateway{respond: remote()}
	c := NewCoordinator(gw, viewer("u1"))

	feed, err := c.RefreshFeed(context.Background(), FeedOptions{})
	require.NoError(t, err)

	// r3 waits for review and u1 is neither its author nor a moderator.
	assert.Equal(t, []string{"r4", "r2", "r1"}, postIDs(feed))
	assert.Equal(t, 4, c.Posts.Len())
	assert.Len(t, c.Groups.Groups(), 2)

	ramen, _ := c.Posts.Get("r2")
	assert.Equal(t, models.PostSourceGroup, ramen.Source)
	assert.Equal(t, "Pasta Club", ramen.GroupName)

	toast, _ := c.Posts.Get("r1")
	assert.Equal(t, models.PostSourcePersonal, toast.Source)

	assert.Equal(t, []string{"ListRecipes", "ListGroups", "ListRecipes"}, gw.Calls())
}

func TestRefreshFeedSurfacesFailingGroup(t *testing.T) {
	freezeTime(t)

	var reported []error
	gw := &fakeGateway{respond: remote("g1")}
	c := NewCoordinator(gw, viewer("u1"))
	c.OnError = func(err error) { reported = append(reported, err) }

	feed, err := c.RefreshFeed(context.Background(), FeedOptions{})
	require.Error(t, err)
	assert.True(t, IsPartialRefresh(err))
	assert.Equal(t, []string{"r2", "r1"}, postIDs(feed))

	var source *SourceFailure
	require.ErrorAs(t, err, &source)
	assert.Equal(t, "g1", source.GroupID)
	var application *ApplicationFailure
	require.ErrorAs(t, err, &application)
	assert.Equal(t, "Group recipes unavailable", application.Message)

	require.Len(t, reported, 1)
	assert.ErrorAs(t, reported[0], &source)
	assert.Len(t, c.Groups.Groups(), 2)
}

func TestIsPartialRefresh(t *testing.T) {
	assert.False(t, IsPartialRefresh(nil))
	assert.False(t, IsPartialRefresh(&NetworkFailure{Err: context.DeadlineExceeded}))
	assert.True(t, IsPartialRefresh(&SourceFailure{GroupID: "g1", Err: context.DeadlineExceeded}))
	assert.True(t, IsPartialRefresh(errors.Join(
		&SourceFailure{GroupID: "g1", Err: context.DeadlineExceeded},
		&SourceFailure{GroupID: "g2", Err: context.Canceled},
	)))
	assert.False(t, IsPartialRefresh(errors.Join(
		&SourceFailure{GroupID: "g1", Err: context.DeadlineExceeded},
		&ApplicationFailure{Message: "nope"},
	)))
}

func TestRefreshFeedFailureKeepsBoards(t *testing.T) {
	var reported []error
	gw := &fakeGateway{respond: always(gateway.Result{}, unreachable())}
	c := newTestCoordinator(gw, viewer("u1"), nil, testPost("r0", "u2"))
	c.OnError = func(err error) { reported = append(reported, err) }

	_, err := c.RefreshFeed(context.Background(), FeedOptions{})
	var network *NetworkFailure
	assert.ErrorAs(t, err, &network)
	assert.Len(t, reported, 1)
	assert.Equal(t, 1, c.Posts.Len())
}

func TestLoadGroupPrefersBoard(t *testing.T) {
	gw := &fakeGateway{respond: remote()}
	c := newTestCoordinator(gw, viewer("u1"), []models.Group{testGroup(models.GroupSettings{})})

	group, err := c.LoadGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "u-owner", group.CreatorID)
	assert.Empty(t, gw.Calls())

	other := NewCoordinator(gw, viewer("u1"))
	group, err = other.LoadGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "u9", group.CreatorID)
	assert.Equal(t, []string{"GetGroup"}, gw.Calls())

	_, found := other.Groups.Get("g1")
	assert.True(t, found)
}

func TestLoadGroupMissing(t *testing.T) {
	gw := &fakeGateway{respond: always(ok(`{"message": "no such group"}`), nil)}
	c := NewCoordinator(gw, viewer("u1"))

	_, err := c.LoadGroup(context.Background(), "g404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshGroupReplacesOnlyItsPosts(t *testing.T) {
	freezeTime(t)

	stale := groupPost("r-old", "u2", models.ModerationVisible)
	gw := &fakeGateway{respond: remote()}
	c := newTestCoordinator(gw, viewer("u1"), nil, testPost("r0", "u2"), stale)

	group, posts, err := c.RefreshGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Pasta Club", group.Name)
	assert.Equal(t, []string{"r4", "r2"}, postIDs(posts))

	_, found := c.Posts.Get("r-old")
	assert.False(t, found)
	_, found = c.Posts.Get("r0")
	assert.True(t, found)
	assert.Equal(t, []string{"GetGroup", "ListRecipes"}, gw.Calls())
}

func TestGroupFeedNarrowsFeed(t *testing.T) {
	group := testGroup(models.GroupSettings{})
	c := newTestCoordinator(&fakeGateway{}, viewer("u-member"), []models.Group{group},
		testPost("r1", "u1"),
		groupPost("r2", "u-member", models.ModerationVisible),
		groupPost("r3", "u-admin", models.ModerationPendingApproval),
	)

	assert.Equal(t, []string{"r2"}, postIDs(c.GroupFeed("g1", FeedOptions{})))
	assert.Len(t, c.Feed(FeedOptions{}), 2)
}
