package content

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
	"github.com/lauri/vocaflow/internal/repository"
)

type contentRepository struct {
	db *sqlx.DB
}

// NewRepository creates a ContentRepository over the sqlite corpus tables.
func NewRepository(db *sqlx.DB) repository.ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Pools(ctx context.Context) (*models.ItemPool, error) {
	log := logger.FromContext(ctx).WithPrefix("content")

	var items []models.Item
	err := r.db.SelectContext(ctx, &items, `
SELECT id, word, translation, example, category, beginner
FROM items
ORDER BY id
`)
	if err != nil {
		log.Error("failed to load item corpus: %v", err)
		return nil, err
	}

	pool := &models.ItemPool{FullItems: items}
	for i := range items {
		items[i].Category = items[i].Category.Normalize()
		if items[i].Beginner {
			pool.BeginnerItems = append(pool.BeginnerItems, items[i])
		}
	}
	log.Debug("item corpus loaded: full=%d, beginner=%d", len(pool.FullItems), len(pool.BeginnerItems))
	return pool, nil
}

func (r *contentRepository) GrammarRules(ctx context.Context) ([]models.GrammarRule, error) {
	log := logger.FromContext(ctx).WithPrefix("content")

	var rules []models.GrammarRule
	err := r.db.SelectContext(ctx, &rules, `
SELECT id, name, extended
FROM grammar_rules
ORDER BY id
`)
	if err != nil {
		log.Error("failed to load grammar rules: %v", err)
		return nil, err
	}
	log.Debug("grammar rules loaded: %d", len(rules))
	return rules, nil
}
