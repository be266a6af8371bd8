package catalog

import "context"

// Store holds the current set of products. Implementations must be safe for
// concurrent use; Add must never hand out the same id twice.
type Store interface {
	Ping(ctx context.Context) error

	// GetAll returns a snapshot of every product, ascending by id.
	GetAll(ctx context.Context) ([]Product, error)

	GetByID(ctx context.Context, id int) (Product, bool, error)

	// Add stores p under a freshly allocated id and writes that id back to p.
	Add(ctx context.Context, p *Product) error

	// Update replaces the record at id (id forced onto p) iff it exists.
	Update(ctx context.Context, id int, p Product) (bool, error)

	Delete(ctx context.Context, id int) (bool, error)

	// ExistsDuplicate reports whether any product other than excludeID has the
	// same title and brand after trimming and case folding. Pass excludeID 0 to
	// check against every product; stored ids are always positive.
	ExistsDuplicate(ctx context.Context, title, brand string, excludeID int) (bool, error)
}
