package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// Gateway is the REST surface the coordinator talks to. *gateway.Client
// implements it.
type Gateway interface {
	ListRecipes(ctx context.Context, query gateway.RecipeQuery) (gateway.Result, error)
	CreateRecipe(ctx context.Context, draft models.PostDraft) (gateway.Result, error)
	UpdateRecipe(ctx context.Context, id string, patch map[string]any) (gateway.Result, error)
	DeleteRecipe(ctx context.Context, id string) (gateway.Result, error)
	LikeRecipe(ctx context.Context, id string) (gateway.Result, error)
	UnlikeRecipe(ctx context.Context, id string) (gateway.Result, error)
	AddComment(ctx context.Context, id, text string) (gateway.Result, error)
	DeleteComment(ctx context.Context, id, commentID string) (gateway.Result, error)

	ListGroups(ctx context.Context) (gateway.Result, error)
	GetGroup(ctx context.Context, id string) (gateway.Result, error)
	CreateGroup(ctx context.Context, draft models.GroupDraft) (gateway.Result, error)
	UpdateGroup(ctx context.Context, id string, draft models.GroupDraft) (gateway.Result, error)
	DeleteGroup(ctx context.Context, id string) (gateway.Result, error)
	JoinGroup(ctx context.Context, id string) (gateway.Result, error)
	CancelJoinRequest(ctx context.Context, id, userID string) (gateway.Result, error)
	HandleJoinRequest(ctx context.Context, id, userID, action, adminID string) (gateway.Result, error)
	RemoveMember(ctx context.Context, id, userID string) (gateway.Result, error)
	PromoteMember(ctx context.Context, id, userID string, role models.MemberRole) (gateway.Result, error)
}

type Coordinator struct {
	Gateway   Gateway
	Viewer    models.Viewer
	Posts     *PostBoard
	Groups    *GroupBoard
	Directory *GroupDirectory

	// OnError receives every failure the user has to see. Optional.
	OnError func(err error)

	flights flights
}

func NewCoordinator(gw Gateway, viewer models.Viewer) *Coordinator {
	return &Coordinator{
		Gateway: gw,
		Viewer:  viewer,
		Posts:   NewPostBoard(),
		Groups:  NewGroupBoard(),
	}
}

// Detach marks the owning screen as gone. Requests still in flight settle
// without touching any state.
func (c *Coordinator) Detach() {
	c.Posts.Detach()
	c.Groups.Detach()
}

type flights struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func (f *flights) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		f.active = make(map[string]struct{})
	}
	if _, ok := f.active[key]; ok {
		return false
	}
	f.active[key] = struct{}{}
	return true
}

func (f *flights) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, key)
}

func (c *Coordinator) InFlight(key string) bool {
	c.flights.mu.Lock()
	defer c.flights.mu.Unlock()
	_, ok := c.flights.active[key]
	return ok
}

func flightKey(scope, target string) string {
	return scope + ":" + target
}

// mutation describes one optimistic action. S is whatever capture needs to
// put things back.
type mutation[S any] struct {
	key       string
	capture   func() (S, error)
	apply     func(snapshot S)
	request   func(ctx context.Context) (gateway.Result, error)
	reconcile func(data jsoniter.RawMessage)
	rollback  func(snapshot S)
}

// perform runs capture, apply, request, then reconcile or rollback. A second
// call for the same key while one is pending does nothing and returns ErrInFlight.
func perform[S any](ctx context.Context, c *Coordinator, m mutation[S]) error {
	if !c.flights.acquire(m.key) {
		log.Debug().Str("key", m.key).Msg("Action already in flight, ignoring...")
		return ErrInFlight
	}
	defer c.flights.release(m.key)

	snapshot, err := m.capture()
	if err != nil {
		return c.report(err)
	}
	m.apply(snapshot)

	result, err := m.request(ctx)
	if err = settle(result, err); err != nil {
		if m.rollback != nil {
			m.rollback(snapshot)
		}
		log.Warn().Err(err).Str("key", m.key).Msg("Action failed, rolled back local state...")
		return c.report(err)
	}

	if m.reconcile != nil {
		m.reconcile(result.Data)
	}
	log.Debug().Str("key", m.key).Msg("Action settled.")
	return nil
}

func settle(result gateway.Result, err error) error {
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			return &NetworkFailure{Status: gwErr.Status, Err: err}
		}
		return &NetworkFailure{Err: err}
	}
	if !result.Success {
		return &ApplicationFailure{Message: result.Message}
	}
	return nil
}

// fetch issues a read and maps its failure the same way mutations do.
func (c *Coordinator) fetch(call func() (gateway.Result, error)) (jsoniter.RawMessage, error) {
	result, err := call()
	if err = settle(result, err); err != nil {
		return nil, c.report(err)
	}
	return result.Data, nil
}

func (c *Coordinator) report(err error) error {
	if err != nil && !errors.Is(err, ErrInFlight) && c.OnError != nil {
		c.OnError(err)
	}
	return err
}

func (c *Coordinator) requireViewer(action string) error {
	if c.Viewer.IsAnonymous() {
		return c.report(denied(action, "you need to sign in first"))
	}
	return nil
}

func provisionalID() string {
	return fmt.Sprintf("local-%s", uuid.NewString())
}

// post loads a post from the board or fails with a ValidationError.
func (c *Coordinator) post(id string) (models.Post, error) {
	post, ok := c.Posts.Get(id)
	if !ok {
		return post, notFound("post", id)
	}
	return post, nil
}

func (c *Coordinator) group(id string) (models.Group, error) {
	group, ok := c.Groups.Get(id)
	if !ok {
		return group, notFound("group", id)
	}
	return group, nil
}
