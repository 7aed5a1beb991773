package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/ordering"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryColumns = "id, name, created_at"
	itemColumns     = "id, category_id, brand, size, sku, price, color, sold, position, created_at, updated_at"

	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresStorage реализует Store поверх PostgreSQL.
// Многошаговые изменения выполняются в одной транзакции под блокировкой
// строки категории, поэтому изменения одной категории сериализуются.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (r *PostgresStorage) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresStorage) ListCategories(ctx context.Context) ([]models.Category, error) {
	query, args, err := psql.Select(categoryColumns).From("categories").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresStorage) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return c, nil
}

func (r *PostgresStorage) CreateCategory(ctx context.Context, c *models.Category) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name) VALUES ($1, $2)
		RETURNING created_at
	`, c.ID, c.Name).Scan(&c.CreatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *PostgresStorage) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCategory(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM items WHERE category_id=$1`, id); err != nil {
			return fmt.Errorf("delete category items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (r *PostgresStorage) ListItems(ctx context.Context, categoryID uuid.UUID, filter ItemFilter) ([]models.Item, error) {
	q := psql.Select(itemColumns).From("items").
		Where(squirrel.Eq{"category_id": categoryID}).
		OrderBy("position ASC")
	if filter.Sold != nil {
		q = q.Where(squirrel.Eq{"sold": *filter.Sold})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Item])
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}

func (r *PostgresStorage) CreateItem(ctx context.Context, it *models.Item) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCategory(ctx, tx, it.CategoryID); err != nil {
			return err
		}

		var maxPosition int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(position), 0) FROM items WHERE category_id=$1`, it.CategoryID,
		).Scan(&maxPosition); err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		it.Order = ordering.Next(maxPosition)

		err := tx.QueryRow(ctx, `
			INSERT INTO items (id, category_id, brand, size, sku, price, color, sold, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING created_at, updated_at
		`, it.ID, it.CategoryID, it.Brand, it.Size, it.SKU, it.Price, it.Color, it.Sold, it.Order,
		).Scan(&it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			if isPgCode(err, pgFKViolation) {
				return ErrNotFound
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	})
}

func (r *PostgresStorage) UpdateItem(ctx context.Context, it *models.Item) error {
	query, args, err := psql.Update("items").
		SetMap(map[string]any{
			"brand":      it.Brand,
			"size":       it.Size,
			"sku":        it.SKU,
			"price":      it.Price,
			"color":      it.Color,
			"updated_at": squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": it.ID}).
		Suffix("RETURNING " + itemColumns).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update item: %w", err)
	}

	updated, err := r.queryItem(ctx, query, args...)
	if err != nil {
		return err
	}
	*it = *updated
	return nil
}

func (r *PostgresStorage) SetItemSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error) {
	query, args, err := psql.Update("items").
		Set("sold", sold).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + itemColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build set sold: %w", err)
	}
	return r.queryItem(ctx, query, args...)
}

func (r *PostgresStorage) queryItem(ctx context.Context, query string, args ...any) (*models.Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Item])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return it, nil
}

func (r *PostgresStorage) DeleteItem(ctx context.Context, id uuid.UUID) error {
	var categoryID uuid.UUID
	if err := r.pool.QueryRow(ctx, `SELECT category_id FROM items WHERE id=$1`, id).Scan(&categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find item category: %w", err)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id=$1 AND category_id=$2`, id, categoryID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		ids, positions, err := categoryPositions(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		return writePositions(ctx, tx, ordering.Changed(positions, ordering.Renumber(ids)))
	})
}

func (r *PostgresStorage) ReorderItems(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		current, positions, err := categoryPositions(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		sold, err := soldItems(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		assignments, err := ordering.Permute(current, ids, func(id uuid.UUID) bool { return sold[id] })
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		}
		return writePositions(ctx, tx, ordering.Changed(positions, assignments))
	})
}

func (r *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *PostgresStorage) CreateUser(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)
		RETURNING created_at
	`, u.ID, u.Username, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (r *PostgresStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.pool.Ping(ctx)
}

func lockCategory(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM categories WHERE id=$1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock category: %w", err)
	}
	return nil
}

// categoryPositions возвращает вещи категории по возрастанию позиции.
func categoryPositions(ctx context.Context, tx pgx.Tx, categoryID uuid.UUID) ([]uuid.UUID, map[uuid.UUID]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, position FROM items WHERE category_id=$1 ORDER BY position ASC, created_at ASC
	`, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	positions := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id  uuid.UUID
			pos int
		)
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, nil, fmt.Errorf("scan position: %w", err)
		}
		ids = append(ids, id)
		positions[id] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan positions rows: %w", err)
	}
	return ids, positions, nil
}

func soldItems(ctx context.Context, tx pgx.Tx, categoryID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM items WHERE category_id=$1 AND sold`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query sold items: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan sold items: %w", err)
	}
	sold := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		sold[id] = true
	}
	return sold, nil
}

func writePositions(ctx context.Context, tx pgx.Tx, assignments []ordering.Assignment[uuid.UUID]) error {
	if len(assignments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`UPDATE items SET position=$1, updated_at=now() WHERE id=$2`, a.Position, a.ID)
	}

	br := tx.SendBatch(ctx, batch)
	for range assignments {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("update position: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
