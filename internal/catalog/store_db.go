package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresStore is the database-backed Store. The products table mirrors the
// entity one column per field, with images kept as a JSON text column; the id
// column is a sequence-backed serial so allocation stays monotonic.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

const productColumns = `
	id, title, description, price, discount_percentage,
	rating, stock, brand, category, thumbnail, images
`

func (s *PostgresStore) GetAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 64)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int) (Product, bool, error) {
	var (
		p  Product
		ok bool
	)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id)

		var err error
		p, err = scanProduct(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return nil
	})

	if err != nil {
		return Product{}, false, err
	}
	return p, ok, nil
}

func (s *PostgresStore) Add(ctx context.Context, p *Product) error {
	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO products
				(title, description, price, discount_percentage,
				 rating, stock, brand, category, thumbnail, images)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`,
			p.Title, p.Description, p.Price, p.DiscountPercentage,
			p.Rating, p.Stock, p.Brand, p.Category, p.Thumbnail, images,
		).Scan(&p.ID)
	})
}

func (s *PostgresStore) Update(ctx context.Context, id int, p Product) (bool, error) {
	images, err := marshalImages(p.Images)
	if err != nil {
		return false, err
	}

	var updated bool
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE products
			SET title = $2, description = $3, price = $4,
			    discount_percentage = $5, rating = $6, stock = $7,
			    brand = $8, category = $9, thumbnail = $10, images = $11
			WHERE id = $1
		`,
			id, p.Title, p.Description, p.Price, p.DiscountPercentage,
			p.Rating, p.Stock, p.Brand, p.Category, p.Thumbnail, images,
		)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		updated = n > 0
		return nil
	})

	return updated, err
}

func (s *PostgresStore) Delete(ctx context.Context, id int) (bool, error) {
	var deleted bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})

	return deleted, err
}

func (s *PostgresStore) ExistsDuplicate(ctx context.Context, title, brand string, excludeID int) (bool, error) {
	var exists bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM products
				WHERE id <> $3
				  AND LOWER(TRIM(title)) = LOWER(TRIM($1))
				  AND LOWER(TRIM(COALESCE(brand, ''))) = LOWER(TRIM($2))
			)
		`, title, brand, excludeID).Scan(&exists)
	})

	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p      Product
		images sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.DiscountPercentage,
		&p.Rating, &p.Stock, &p.Brand, &p.Category, &p.Thumbnail, &images,
	)
	if err != nil {
		return Product{}, err
	}

	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &p.Images); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}

func marshalImages(images []string) (sql.NullString, error) {
	if images == nil {
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(images)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
