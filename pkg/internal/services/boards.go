package services

import (
	"sync"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/samber/lo"
)

// PostBoard holds the canonical posts a screen renders. Only the coordinator
// writes to it. Once detached, every write is dropped so late network
// resolutions land nowhere.
type PostBoard struct {
	mu       sync.RWMutex
	posts    []models.Post
	detached bool
}

func NewPostBoard(posts ...models.Post) *PostBoard {
	board := &PostBoard{}
	board.Replace(posts)
	return board
}

func (b *PostBoard) Replace(posts []models.Post) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	b.posts = lo.Map(posts, func(item models.Post, _ int) models.Post {
		return item.Clone()
	})
	return true
}

func (b *PostBoard) Posts() []models.Post {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Map(b.posts, func(item models.Post, _ int) models.Post {
		return item.Clone()
	})
}

func (b *PostBoard) Get(id string) (models.Post, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	post, ok := lo.Find(b.posts, func(item models.Post) bool {
		return item.ID == id
	})
	return post.Clone(), ok
}

// Locate returns the post together with its position on the board.
func (b *PostBoard) Locate(id string) (models.Post, int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	post, idx, ok := lo.FindIndexOf(b.posts, func(item models.Post) bool {
		return item.ID == id
	})
	return post.Clone(), idx, ok
}

func (b *PostBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.posts)
}

// Update runs fn against the live post. It reports false when the board is
// detached or the post is gone.
func (b *PostBoard) Update(id string, fn func(post *models.Post)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	_, idx, ok := lo.FindIndexOf(b.posts, func(item models.Post) bool {
		return item.ID == id
	})
	if !ok {
		return false
	}
	fn(&b.posts[idx])
	return true
}

func (b *PostBoard) Insert(index int, post models.Post) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	index = lo.Clamp(index, 0, len(b.posts))
	b.posts = append(b.posts[:index], append([]models.Post{post.Clone()}, b.posts[index:]...)...)
	return true
}

// Remove deletes the post and returns it with the index it held.
func (b *PostBoard) Remove(id string) (models.Post, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return models.Post{}, -1, false
	}
	post, idx, ok := lo.FindIndexOf(b.posts, func(item models.Post) bool {
		return item.ID == id
	})
	if !ok {
		return models.Post{}, -1, false
	}
	b.posts = append(b.posts[:idx], b.posts[idx+1:]...)
	return post.Clone(), idx, true
}

func (b *PostBoard) RemoveWhere(fn func(post models.Post) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return 0
	}
	before := len(b.posts)
	b.posts = lo.Reject(b.posts, func(item models.Post, _ int) bool {
		return fn(item)
	})
	return before - len(b.posts)
}

func (b *PostBoard) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detached = true
}

func (b *PostBoard) Detached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.detached
}

// GroupBoard is the group counterpart of PostBoard.
type GroupBoard struct {
	mu       sync.RWMutex
	groups   []models.Group
	detached bool
}

func NewGroupBoard(groups ...models.Group) *GroupBoard {
	board := &GroupBoard{}
	board.Replace(groups)
	return board
}

func (b *GroupBoard) Replace(groups []models.Group) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	b.groups = lo.Map(groups, func(item models.Group, _ int) models.Group {
		return item.Clone()
	})
	return true
}

func (b *GroupBoard) Groups() []models.Group {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Map(b.groups, func(item models.Group, _ int) models.Group {
		return item.Clone()
	})
}

func (b *GroupBoard) Get(id string) (models.Group, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	group, ok := lo.Find(b.groups, func(item models.Group) bool {
		return item.ID == id
	})
	return group.Clone(), ok
}

// Lookup returns copies of every group keyed by id.
func (b *GroupBoard) Lookup() map[string]*models.Group {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]*models.Group, len(b.groups))
	for _, item := range b.groups {
		clone := item.Clone()
		out[item.ID] = &clone
	}
	return out
}

func (b *GroupBoard) Locate(id string) (models.Group, int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	group, idx, ok := lo.FindIndexOf(b.groups, func(item models.Group) bool {
		return item.ID == id
	})
	return group.Clone(), idx, ok
}

func (b *GroupBoard) Update(id string, fn func(group *models.Group)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	_, idx, ok := lo.FindIndexOf(b.groups, func(item models.Group) bool {
		return item.ID == id
	})
	if !ok {
		return false
	}
	fn(&b.groups[idx])
	return true
}

// Put replaces the group with the same id or appends it.
func (b *GroupBoard) Put(group models.Group) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	_, idx, ok := lo.FindIndexOf(b.groups, func(item models.Group) bool {
		return item.ID == group.ID
	})
	if ok {
		b.groups[idx] = group.Clone()
	} else {
		b.groups = append(b.groups, group.Clone())
	}
	return true
}

func (b *GroupBoard) Insert(index int, group models.Group) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return false
	}
	index = lo.Clamp(index, 0, len(b.groups))
	b.groups = append(b.groups[:index], append([]models.Group{group.Clone()}, b.groups[index:]...)...)
	return true
}

func (b *GroupBoard) Remove(id string) (models.Group, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return models.Group{}, -1, false
	}
	group, idx, ok := lo.FindIndexOf(b.groups, func(item models.Group) bool {
		return item.ID == id
	})
	if !ok {
		return models.Group{}, -1, false
	}
	b.groups = append(b.groups[:idx], b.groups[idx+1:]...)
	return group.Clone(), idx, true
}

func (b *GroupBoard) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detached = true
}
