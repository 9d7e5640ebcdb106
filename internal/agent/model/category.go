package model

import "strings"

// Category is the closed set of labels the classifier may route to.
// The handler selected for a request is also expressed as a Category.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryCoding       Category = "coding"
	CategoryGrammar      Category = "grammar"
	CategoryResearch     Category = "research"
	CategoryPlanning     Category = "planning"
	CategoryCreative     Category = "creative"
	CategoryMath         Category = "math"
	CategoryConversation Category = "conversation"
)

// DefaultCategory is used whenever classification is missing or invalid.
const DefaultCategory = CategoryGeneral

var categories = [...]Category{
	CategoryGeneral,
	CategoryCoding,
	CategoryGrammar,
	CategoryResearch,
	CategoryPlanning,
	CategoryCreative,
	CategoryMath,
	CategoryConversation,
}

// Categories returns every valid category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// Valid reports whether c is one of the eight labels.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory normalises raw classifier output. Anything outside the closed
// set resolves to DefaultCategory with ok=false.
func ParseCategory(raw string) (c Category, ok bool) {
	c = Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return DefaultCategory, false
	}
	return c, true
}
