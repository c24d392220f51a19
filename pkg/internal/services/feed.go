package services

import (
	"sort"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/samber/lo"
)

type FeedOptions struct {
	Category          string `json:"category"`
	MeatType          string `json:"meatType"`
	CookingTimeBucket string `json:"cookingTimeBucket"`
	SortBy            string `json:"sortBy"`
}

type TimeRange struct {
	Min *int
	Max *int
}

func (v TimeRange) Contains(minutes int) bool {
	if v.Min != nil && minutes < *v.Min {
		return false
	}
	if v.Max != nil && minutes > *v.Max {
		return false
	}
	return true
}

// BucketRange maps a cooking time bucket to its inclusive minute bounds.
// Unknown buckets and the all sentinel are unbounded.
func BucketRange(bucket string) TimeRange {
	switch strings.ToLower(bucket) {
	case models.CookingTimeUnder30:
		return TimeRange{Max: lo.ToPtr(30)}
	case models.CookingTime30To60:
		return TimeRange{Min: lo.ToPtr(30), Max: lo.ToPtr(60)}
	case models.CookingTime60To120:
		return TimeRange{Min: lo.ToPtr(60), Max: lo.ToPtr(120)}
	case models.CookingTimeOver120:
		return TimeRange{Min: lo.ToPtr(120)}
	default:
		return TimeRange{}
	}
}

// Validate rejects option values outside the fixed vocabularies. Empty values
// and the all sentinel are always accepted.
func (v FeedOptions) Validate() error {
	if isActiveFilter(v.Category) && !models.IsRecipeCategory(v.Category) {
		return invalid("category", "is not a known recipe category")
	}
	if isActiveFilter(v.MeatType) && !models.IsMeatType(v.MeatType) {
		return invalid("meatType", "is not a known meat type")
	}
	if isActiveFilter(v.CookingTimeBucket) && !lo.Contains(models.CookingTimeBuckets, strings.ToLower(v.CookingTimeBucket)) {
		return invalid("cookingTimeBucket", "must be one of "+strings.Join(models.CookingTimeBuckets, ", "))
	}
	if len(v.SortBy) > 0 && !lo.Contains(models.SortOrders, strings.ToLower(v.SortBy)) {
		return invalid("sortBy", "must be one of "+strings.Join(models.SortOrders, ", "))
	}
	return nil
}

func isActiveFilter(value string) bool {
	return len(value) > 0 && !strings.EqualFold(value, models.FilterAll)
}

func (v FeedOptions) Matches(post models.Post) bool {
	if isActiveFilter(v.Category) && !strings.EqualFold(post.Category, v.Category) {
		return false
	}
	if isActiveFilter(v.MeatType) && !strings.EqualFold(post.MeatType, v.MeatType) {
		return false
	}
	if isActiveFilter(v.CookingTimeBucket) && !BucketRange(v.CookingTimeBucket).Contains(post.PrepTimeMinutes) {
		return false
	}
	return true
}

// FilterAndSort never touches its input. Equal keys keep their original order.
func FilterAndSort(posts []models.Post, options FeedOptions) []models.Post {
	out := lo.Filter(posts, func(item models.Post, _ int) bool {
		return options.Matches(item)
	})

	var less func(a, b models.Post) bool
	switch strings.ToLower(options.SortBy) {
	case models.SortOldest:
		less = func(a, b models.Post) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortPopular:
		less = func(a, b models.Post) bool { return len(a.LikerIDs) > len(b.LikerIDs) }
	default:
		less = func(a, b models.Post) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

type GroupFeedSource struct {
	Group models.Group
	Posts []models.Post
}

// ComposeFeed merges the personal source with every group source, tagging each
// post with where it came from. The first occurrence of an id wins.
// Group posts from the personal source borrow the name of a loaded group.
func ComposeFeed(personal []models.Post, groups []GroupFeedSource) []models.Post {
	names := make(map[string]string, len(groups))
	for _, source := range groups {
		names[source.Group.ID] = source.Group.Name
	}

	feed := make([]models.Post, 0, len(personal))
	for _, post := range personal {
		if !post.IsGroupPost() {
			post.Source = models.PostSourcePersonal
		} else if len(post.GroupName) == 0 {
			post.GroupName = names[post.GroupID]
		}
		feed = append(feed, post)
	}
	for _, source := range groups {
		for _, post := range source.Posts {
			post.Source = models.PostSourceGroup
			post.GroupID = source.Group.ID
			post.GroupName = source.Group.Name
			feed = append(feed, post)
		}
	}

	return lo.UniqBy(feed, func(item models.Post) string {
		return item.ID
	})
}
