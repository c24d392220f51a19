package models

import (
	"strings"

	"github.com/samber/lo"
)

// FilterAll disables a feed filter when used as its value.
const FilterAll = "all"

var RecipeCategories = []string{
	"Breakfast",
	"Lunch",
	"Dinner",
	"Dessert",
	"Snack",
	"Appetizer",
	"Soup",
	"Salad",
	"Italian",
	"Asian",
	"Mexican",
	"Mediterranean",
	"Vegetarian",
	"Vegan",
	"Baking",
	"Drinks",
	"Other",
}

var MeatTypes = []string{
	"Chicken",
	"Beef",
	"Pork",
	"Lamb",
	"Fish",
	"Seafood",
	"Turkey",
	"Vegetarian",
	"Vegan",
	"None",
	"Other",
}

const (
	CookingTimeUnder30 = "under30"
	CookingTime30To60  = "30to60"
	CookingTime60To120 = "60to120"
	CookingTimeOver120 = "over120"
)

var CookingTimeBuckets = []string{
	CookingTimeUnder30,
	CookingTime30To60,
	CookingTime60To120,
	CookingTimeOver120,
}

const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

var SortOrders = []string{SortNewest, SortOldest, SortPopular}

func IsRecipeCategory(value string) bool {
	return lo.ContainsBy(RecipeCategories, func(item string) bool {
		return strings.EqualFold(item, value)
	})
}

func IsMeatType(value string) bool {
	return lo.ContainsBy(MeatTypes, func(item string) bool {
		return strings.EqualFold(item, value)
	})
}
