package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
)

var fixedNow = time.Date(2024, 11, 3, 12, 0, 0, 0, time.UTC)

func freezeTime(t *testing.T) {
	t.Helper()
	previous := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = previous })
}

type responder func(method string, args ...any) (gateway.Result, error)

// fakeGateway records every call. When gate is set, calls block until it is
// closed or the context ends.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []string
	respond responder
	gate    chan struct{}
	entered chan string
}

func (f *fakeGateway) handle(ctx context.Context, method string, args ...any) (gateway.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	respond, gate, entered := f.respond, f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- method
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return gateway.Result{}, &gateway.Error{Message: "request cancelled", Err: ctx.Err()}
		}
	}
	if respond == nil {
		return gateway.Result{Success: true}, nil
	}
	return respond(method, args...)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeGateway) ListRecipes(ctx context.Context, query gateway.RecipeQuery) (gateway.Result, error) {
	return f.handle(ctx, "ListRecipes", query)
}

func (f *fakeGateway) CreateRecipe(ctx context.Context, draft models.PostDraft) (gateway.Result, error) {
	return f.handle(ctx, "CreateRecipe", draft)
}

func (f *fakeGateway) UpdateRecipe(ctx context.Context, id string, patch map[string]any) (gateway.Result, error) {
	return f.handle(ctx, "UpdateRecipe", id, patch)
}

func (f *fakeGateway) DeleteRecipe(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "DeleteRecipe", id)
}

func (f *fakeGateway) LikeRecipe(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "LikeRecipe", id)
}

func (f *fakeGateway) UnlikeRecipe(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "UnlikeRecipe", id)
}

func (f *fakeGateway) AddComment(ctx context.Context, id, text string) (gateway.Result, error) {
	return f.handle(ctx, "AddComment", id, text)
}

func (f *fakeGateway) DeleteComment(ctx context.Context, id, commentID string) (gateway.Result, error) {
	return f.handle(ctx, "DeleteComment", id, commentID)
}

func (f *fakeGateway) ListGroups(ctx context.Context) (gateway.Result, error) {
	return f.handle(ctx, "ListGroups")
}

func (f *fakeGateway) GetGroup(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "GetGroup", id)
}

func (f *fakeGateway) CreateGroup(ctx context.Context, draft models.GroupDraft) (gateway.Result, error) {
	return f.handle(ctx, "CreateGroup", draft)
}

func (f *fakeGateway) UpdateGroup(ctx context.Context, id string, draft models.GroupDraft) (gateway.Result, error) {
	return f.handle(ctx, "UpdateGroup", id, draft)
}

func (f *fakeGateway) DeleteGroup(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "DeleteGroup", id)
}

func (f *fakeGateway) JoinGroup(ctx context.Context, id string) (gateway.Result, error) {
	return f.handle(ctx, "JoinGroup", id)
}

func (f *fakeGateway) CancelJoinRequest(ctx context.Context, id, userID string) (gateway.Result, error) {
	return f.handle(ctx, "CancelJoinRequest", id, userID)
}

func (f *fakeGateway) HandleJoinRequest(ctx context.Context, id, userID, action, adminID string) (gateway.Result, error) {
	return f.handle(ctx, "HandleJoinRequest", id, userID, action, adminID)
}

func (f *fakeGateway) RemoveMember(ctx context.Context, id, userID string) (gateway.Result, error) {
	return f.handle(ctx, "RemoveMember", id, userID)
}

func (f *fakeGateway) PromoteMember(ctx context.Context, id, userID string, role models.MemberRole) (gateway.Result, error) {
	return f.handle(ctx, "PromoteMember", id, userID, role)
}

func ok(data string) gateway.Result {
	return gateway.Result{Success: true, Data: jsoniter.RawMessage(data)}
}

func rejected(message string) gateway.Result {
	return gateway.Result{Success: false, Message: message}
}

func unreachable() error {
	return &gateway.Error{Message: "POST /recipes failed", Err: context.DeadlineExceeded}
}

func always(result gateway.Result, err error) responder {
	return func(string, ...any) (gateway.Result, error) {
		return result, err
	}
}

func viewer(id string) models.Viewer {
	return models.Viewer{ID: id, Name: "User " + id}
}

func member(id string, role models.MemberRole) models.Membership {
	return models.Membership{UserID: id, UserName: "User " + id, Role: role, JoinedAt: fixedNow}
}

// testGroup is owned by u-owner with u-admin as admin and u-member as a plain member.
func testGroup(settings models.GroupSettings) models.Group {
	return models.Group{
		ID:        "g1",
		Name:      "Pasta Club",
		Category:  "Italian",
		CreatorID: "u-owner",
		Settings:  settings,
		Members: []models.Membership{
			member("u-owner", models.MemberRoleOwner),
			member("u-admin", models.MemberRoleAdmin),
			member("u-member", models.MemberRoleMember),
		},
		PendingRequests: []models.JoinRequest{},
		CreatedAt:       fixedNow,
	}
}

func testPost(id, author string) models.Post {
	return models.Post{
		ID:              id,
		AuthorID:        author,
		AuthorName:      "User " + author,
		Title:           "Recipe " + id,
		Description:     "Tasty",
		Ingredients:     "Flour",
		Instructions:    "Mix",
		Category:        "Italian",
		MeatType:        "None",
		PrepTimeMinutes: 20,
		Servings:        2,
		LikerIDs:        []string{},
		Comments:        []models.Comment{},
		Source:          models.PostSourcePersonal,
		ModerationState: models.ModerationVisible,
		CreatedAt:       fixedNow,
	}
}

func groupPost(id, author string, state models.ModerationState) models.Post {
	post := testPost(id, author)
	post.Source = models.PostSourceGroup
	post.GroupID = "g1"
	post.GroupName = "Pasta Club"
	post.ModerationState = state
	return post
}

func newTestCoordinator(gw *fakeGateway, as models.Viewer, groups []models.Group, posts ...models.Post) *Coordinator {
	c := NewCoordinator(gw, as)
	c.Groups.Replace(groups)
	c.Posts.Replace(posts)
	return c
}
