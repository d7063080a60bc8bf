package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomakado/containers/set"
)

// ErrUnsupportedCategory is returned when a category name is outside the fixed enumeration.
var ErrUnsupportedCategory = errors.New("unsupported category")

type Category string

const (
	CategoryTopHeadlines  Category = "top-headlines"
	CategoryGeneral       Category = "general"
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategorySports        Category = "sports"
	CategorySearch        Category = "search"
)

// PersonalCategories are the categories a user can enable as their own feeds,
// in the order they are fetched and displayed.
var PersonalCategories = []Category{
	CategoryGeneral,
	CategoryBusiness,
	CategoryTechnology,
	CategoryScience,
	CategoryHealth,
	CategoryEntertainment,
	CategorySports,
}

// NotifiableCategories can carry notifications. Search results never do.
var NotifiableCategories = append([]Category{CategoryTopHeadlines}, PersonalCategories...)

var (
	allCategories      = set.New(slices.Concat(NotifiableCategories, []Category{CategorySearch})...)
	personalCategories = set.New(PersonalCategories...)
)

// ParseCategory validates a raw category name.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !allCategories.Contains(c) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCategory, raw)
	}

	return c, nil
}

// IsPersonal reports whether c can be enabled as a personal feed.
func (c Category) IsPersonal() bool {
	return personalCategories.Contains(c)
}

func (c Category) String() string {
	return string(c)
}

// Ptr is a shorthand for building Article.Category values.
func (c Category) Ptr() *Category {
	return &c
}
