package models

// Category is the lexical category of a vocabulary item. Unknown or missing
// categories fall into CategoryOther.
type Category string

const (
	CategoryNoun       Category = "noun"
	CategoryVerb       Category = "verb"
	CategoryAdjective  Category = "adjective"
	CategoryAdverb     Category = "adverb"
	CategoryExpression Category = "expression"
	CategoryOther      Category = "other"
)

// Normalize maps arbitrary category strings onto the known set.
func (c Category) Normalize() Category {
	switch c {
	case CategoryNoun, CategoryVerb, CategoryAdjective, CategoryAdverb, CategoryExpression:
		return c
	default:
		return CategoryOther
	}
}

// Item is one vocabulary entry from the content corpus. Display fields are
// opaque to the scheduler; only ID and Category drive selection.
type Item struct {
	ID          string   `json:"id" db:"id"`
	Word        string   `json:"word" db:"word"`
	Translation string   `json:"translation" db:"translation"`
	Example     string   `json:"example" db:"example"`
	Category    Category `json:"category" db:"category"`
	Beginner    bool     `json:"beginner" db:"beginner"`
}

// ItemPool is the content corpus split into the beginner subset and the full
// set unlocked once the lifetime-mastery threshold is crossed.
type ItemPool struct {
	BeginnerItems []Item `json:"beginner_items"`
	FullItems     []Item `json:"full_items"`
}

// GrammarRule is one grammar rule category. Rules are split into a core and
// an extended set for readiness gating.
type GrammarRule struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Extended bool   `json:"extended" db:"extended"`
}
