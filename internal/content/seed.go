package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/models"
)

// corpusFile is the on-disk shape of a content corpus.
type corpusFile struct {
	Items        []models.Item        `json:"items"`
	GrammarRules []models.GrammarRule `json:"grammar_rules"`
}

// Seed loads the corpus file at path into the content tables. Existing rows
// win; seeding is skipped entirely when the items table is not empty, so a
// deployed corpus is never clobbered by a stale file.
func Seed(ctx context.Context, db *sqlx.DB, path string) error {
	log := logger.FromContext(ctx).WithPrefix("content")

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM items`); err != nil {
		return fmt.Errorf("check items table: %w", err)
	}
	if n > 0 {
		log.Debug("items table already populated (%d rows), skipping seed", n)
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read corpus file: %w", err)
	}
	var corpus corpusFile
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return fmt.Errorf("parse corpus file %s: %w", path, err)
	}
	if len(corpus.Items) == 0 {
		return fmt.Errorf("corpus file %s contains no items", path)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range corpus.Items {
		corpus.Items[i].Category = corpus.Items[i].Category.Normalize()
	}
	if _, err := tx.NamedExecContext(ctx, `
INSERT INTO items (id, word, translation, example, category, beginner)
VALUES (:id, :word, :translation, :example, :category, :beginner)
`, corpus.Items); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}
	if len(corpus.GrammarRules) > 0 {
		if _, err := tx.NamedExecContext(ctx, `
INSERT INTO grammar_rules (id, name, extended)
VALUES (:id, :name, :extended)
`, corpus.GrammarRules); err != nil {
			return fmt.Errorf("seed grammar rules: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("corpus seeded: items=%d, grammar_rules=%d", len(corpus.Items), len(corpus.GrammarRules))
	return nil
}
