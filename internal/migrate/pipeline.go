package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/store"
)

// Config parameterizes a pipeline run.
type Config struct {
	SeedPath  string
	DBPath    string
	BatchSize int // tools per batch transaction
}

// DefaultBatchSize is applied when Config.BatchSize is zero.
const DefaultBatchSize = 100

// Stats counts the records produced by a run.
type Stats struct {
	Keywords   int
	Categories int
	Tools      int
	Tags       int
	ToolTags   int
}

// Pipeline is the staged migration state machine. Each run recreates the
// schema from scratch; the pipeline is safe to re-run from the same seed.
// Stages are individually committed, so a mid-run failure leaves earlier
// stages in place together with a failed migration_log row naming the cause.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	st    *store.Store
	seed  *Seed
	stats Stats
}

// New creates a pipeline.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Stats returns the record counts of the last run.
func (p *Pipeline) Stats() Stats { return p.stats }

// Run executes every stage in order and aborts on the first failure.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.stats = Stats{}

	if err := p.recreateDatabase(); err != nil {
		return err
	}
	defer p.st.Close()

	seed, err := LoadSeed(p.cfg.SeedPath)
	if err != nil {
		return err
	}
	p.seed = seed
	p.logger.Info("seed loaded",
		slog.Int("tools", len(seed.Tools)),
		slog.Int("categories", len(seed.Categories)))

	if err := p.runStage(ctx, "site_config", p.migrateSiteConfig); err != nil {
		return err
	}
	if err := p.runStage(ctx, "categories", p.migrateCategories); err != nil {
		return err
	}
	if err := p.runStage(ctx, "tools_and_tags", p.migrateToolsAndTags); err != nil {
		return err
	}

	// Bulk (re)initialization of the derived search index. Triggers keep it
	// consistent from here on.
	if err := p.st.RebuildSearchIndex(); err != nil {
		return err
	}

	if err := p.runStage(ctx, "verify", p.verify); err != nil {
		return err
	}

	p.report(time.Since(start))
	return nil
}

// recreateDatabase drops the database file and reapplies the schema.
func (p *Pipeline) recreateDatabase() error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := p.cfg.DBPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("migrate: remove %s: %w", path, err)
		}
	}
	st, err := store.Open(p.cfg.DBPath)
	if err != nil {
		return err
	}
	p.st = st
	p.logger.Info("database recreated", slog.String("path", p.cfg.DBPath))
	return nil
}

// runStage records one migration_log row around fn: running on entry,
// completed with the record count on success, failed with the error message
// otherwise.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	conn := p.st.Conn()
	res, err := conn.Exec(`INSERT INTO migration_log (batch_name, status) VALUES (?, 'running')`, name)
	if err != nil {
		return fmt.Errorf("migrate: log stage %s: %w", name, err)
	}
	logID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	count, err := fn(ctx)
	if err != nil {
		_, _ = conn.Exec(`
			UPDATE migration_log
			SET status = 'failed', error_message = ?, completed_at = CURRENT_TIMESTAMP
			WHERE id = ?`, err.Error(), logID)
		p.logger.Error("stage failed", slog.String("stage", name), slog.String("error", err.Error()))
		return err
	}

	_, err = conn.Exec(`
		UPDATE migration_log
		SET status = 'completed', records_migrated = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?`, count, logID)
	if err != nil {
		return fmt.Errorf("migrate: complete stage %s: %w", name, err)
	}
	p.logger.Info("stage completed", slog.String("stage", name), slog.Int("records", count))
	return nil
}

func (p *Pipeline) migrateSiteConfig(_ context.Context) (int, error) {
	tx, err := p.st.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		UPDATE site_config
		SET site_name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`, p.seed.SiteConfig.SiteName, p.seed.SiteConfig.Description)
	if err != nil {
		return 0, fmt.Errorf("migrate: site config: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO site_keywords (keyword) VALUES (?)`)
	if err != nil {
		return 0, fmt.Errorf("migrate: prepare keyword insert: %w", err)
	}
	defer stmt.Close()
	for _, kw := range p.seed.SiteConfig.Keywords {
		if _, err := stmt.Exec(kw); err != nil {
			return 0, fmt.Errorf("migrate: insert keyword %q: %w", kw, err)
		}
		p.stats.Keywords++
	}
	return p.stats.Keywords, tx.Commit()
}

func (p *Pipeline) migrateCategories(_ context.Context) (int, error) {
	tx, err := p.st.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT INTO categories (legacy_id, name, icon, display_order)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("migrate: prepare category insert: %w", err)
	}
	defer stmt.Close()

	// Display order follows the seed array order.
	for i, cat := range p.seed.Categories {
		legacyID, err := store.ExtractLegacyID(cat.ID)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.Exec(legacyID, cat.Name, cat.Icon, i); err != nil {
			return 0, fmt.Errorf("migrate: insert category %q: %w", cat.ID, err)
		}
		p.stats.Categories++
	}
	return p.stats.Categories, tx.Commit()
}

func (p *Pipeline) migrateToolsAndTags(ctx context.Context) (int, error) {
	for i := 0; i < len(p.seed.Tools); i += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		end := min(i+p.cfg.BatchSize, len(p.seed.Tools))
		if err := p.migrateToolBatch(p.seed.Tools[i:end]); err != nil {
			return 0, err
		}
		p.logger.Info("tool batch migrated",
			slog.Int("done", end),
			slog.Int("total", len(p.seed.Tools)))
	}
	return p.stats.Tools, nil
}

// migrateToolBatch inserts one batch of tools with their tags in a single
// transaction. Category references resolve through a subselect; a broken
// reference inserts NULL and is caught by the verify stage.
func (p *Pipeline) migrateToolBatch(tools []SeedTool) error {
	tx, err := p.st.Conn().Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	toolStmt, err := tx.Prepare(`
		INSERT INTO tools (legacy_id, name, description, logo, url, category_id,
		                   is_featured, is_new, view_count, added_date)
		VALUES (?, ?, ?, ?, ?, (SELECT id FROM categories WHERE legacy_id = ?), ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("migrate: prepare tool insert: %w", err)
	}
	defer toolStmt.Close()

	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("migrate: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	toolTagStmt, err := tx.Prepare(`
		INSERT INTO tool_tags (tool_id, tag_id)
		VALUES ((SELECT id FROM tools WHERE legacy_id = ?),
		        (SELECT id FROM tags WHERE name = ?))`)
	if err != nil {
		return fmt.Errorf("migrate: prepare tool-tag insert: %w", err)
	}
	defer toolTagStmt.Close()

	for _, tool := range tools {
		toolLegacyID, err := store.ExtractLegacyID(tool.ID)
		if err != nil {
			return err
		}
		categoryLegacyID, err := store.ExtractLegacyID(tool.CategoryID)
		if err != nil {
			return err
		}

		_, err = toolStmt.Exec(toolLegacyID, tool.Name, tool.Description, tool.Logo,
			tool.URL, categoryLegacyID, boolToInt(tool.IsFeatured), boolToInt(tool.IsNew),
			tool.ViewCount, tool.AddedDate)
		if err != nil {
			return fmt.Errorf("migrate: insert tool %q: %w", tool.ID, err)
		}
		p.stats.Tools++

		for _, tag := range tool.Tags {
			res, err := tagStmt.Exec(tag)
			if err != nil {
				return fmt.Errorf("migrate: insert tag %q: %w", tag, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				p.stats.Tags++
			}
			if _, err := toolTagStmt.Exec(toolLegacyID, tag); err != nil {
				return fmt.Errorf("migrate: associate tag %q with %q: %w", tag, tool.ID, err)
			}
			p.stats.ToolTags++
		}
	}
	return tx.Commit()
}

// verify runs the fixed integrity battery. Any mismatch aborts the run with
// an *apperr.IntegrityError.
func (p *Pipeline) verify(_ context.Context) (int, error) {
	checks := []struct {
		name     string
		query    string
		expected int
	}{
		{
			name:     "category count",
			query:    `SELECT COUNT(*) FROM categories WHERE is_deleted = 0`,
			expected: len(p.seed.Categories),
		},
		{
			name:     "tool count",
			query:    `SELECT COUNT(*) FROM tools WHERE is_deleted = 0`,
			expected: len(p.seed.Tools),
		},
		{
			name: "tools with missing category",
			query: `SELECT COUNT(*) FROM tools
			        WHERE category_id IS NULL
			           OR category_id NOT IN (SELECT id FROM categories)`,
			expected: 0,
		},
		{
			name: "orphan tag associations",
			query: `SELECT COUNT(*) FROM tool_tags tt
			        WHERE NOT EXISTS (SELECT 1 FROM tools WHERE id = tt.tool_id)`,
			expected: 0,
		},
	}

	for _, check := range checks {
		var got int
		if err := p.st.Conn().QueryRow(check.query).Scan(&got); err != nil {
			return 0, fmt.Errorf("migrate: run check %q: %w", check.name, err)
		}
		if got != check.expected {
			return 0, &apperr.IntegrityError{Check: check.name, Got: got, Expected: check.expected}
		}
		p.logger.Info("integrity check passed",
			slog.String("check", check.name), slog.Int("count", got))
	}
	return len(checks), nil
}

// report logs a human-readable run summary including the per-stage audit
// rows and the resulting file size.
func (p *Pipeline) report(elapsed time.Duration) {
	p.logger.Info("migration completed",
		slog.String("site", p.seed.SiteConfig.SiteName),
		slog.Int("keywords", p.stats.Keywords),
		slog.Int("categories", p.stats.Categories),
		slog.Int("tools", p.stats.Tools),
		slog.Int("tags", p.stats.Tags),
		slog.Int("tool_tags", p.stats.ToolTags),
		slog.Duration("elapsed", elapsed))

	rows, err := p.st.Conn().Query(`
		SELECT batch_name, status, records_migrated, started_at, COALESCE(completed_at, '')
		FROM migration_log ORDER BY started_at`)
	if err != nil {
		p.logger.Warn("report: read migration log", slog.String("error", err.Error()))
		return
	}
	defer rows.Close()
	for rows.Next() {
		var name, status, startedAt, completedAt string
		var records int
		if err := rows.Scan(&name, &status, &records, &startedAt, &completedAt); err != nil {
			break
		}
		p.logger.Info("migration log",
			slog.String("batch", name),
			slog.String("status", status),
			slog.Int("records", records))
	}

	if info, err := os.Stat(p.cfg.DBPath); err == nil {
		p.logger.Info("database size", slog.Int64("bytes", info.Size()))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
