// api/store/product_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"bazario/api/models"
)

// ProductStore reads the product catalog from PostgreSQL. The suggestion
// subsystem treats products as read-only and only ever sees approved ones.
// Queries are assembled with goqu so conditional filters stay parameterized
// instead of string-concatenated.
type ProductStore struct {
	db      *sql.DB
	builder *goqu.Database
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{
		db:      db,
		builder: goqu.New("postgres", db),
	}
}

var productColumns = []interface{}{
	goqu.I("p.id"),
	goqu.I("p.title"),
	goqu.I("p.description"),
	goqu.I("p.price"),
	goqu.I("p.category"),
	goqu.I("p.status"),
	goqu.I("p.seller_id"),
	goqu.I("u.name").As("seller_name"),
	goqu.I("p.created_at"),
	goqu.I("p.updated_at"),
}

// approvedDataset is the base query every read in this store starts from:
// approved products with their seller name joined in.
func (s *ProductStore) approvedDataset() *goqu.SelectDataset {
	return s.builder.
		From(goqu.T("products").As("p")).
		Select(productColumns...).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("p.seller_id").Eq(goqu.I("u.id")))).
		Where(goqu.I("p.status").Eq(models.ProductStatusApproved)).
		Prepared(true)
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		var sellerName sql.NullString
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.Status,
			&p.SellerID,
			&sellerName,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		if sellerName.Valid {
			p.SellerName = &sellerName.String
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during product query: %w", err)
	}
	return products, nil
}

func (s *ProductStore) queryProducts(ctx context.Context, ds *goqu.SelectDataset) ([]models.Product, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build product query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// FindApprovedByInterests returns approved products whose category is in
// the given set or whose title/description contains any of the given terms
// (case-insensitive, unanchored), newest first.
func (s *ProductStore) FindApprovedByInterests(ctx context.Context, categories, terms []string, limit uint) ([]models.Product, error) {
	if len(categories) == 0 && len(terms) == 0 {
		return nil, nil
	}

	var conds []goqu.Expression
	if len(categories) > 0 {
		conds = append(conds, goqu.I("p.category").In(categories))
	}
	for _, term := range terms {
		pattern := "%" + term + "%"
		conds = append(conds, goqu.Or(
			goqu.I("p.title").ILike(pattern),
			goqu.I("p.description").ILike(pattern),
		))
	}

	ds := s.approvedDataset().
		Where(goqu.Or(conds...)).
		Order(goqu.I("p.created_at").Desc(), goqu.I("p.id").Asc()).
		Limit(limit)

	return s.queryProducts(ctx, ds)
}

// FindApprovedByIDs returns the approved subset of the given product IDs,
// in no particular order.
func (s *ProductStore) FindApprovedByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ds := s.approvedDataset().Where(goqu.I("p.id").In(ids))
	return s.queryProducts(ctx, ds)
}

// ListApprovedRecent returns approved products newest first, skipping the
// excluded IDs. The secondary id ordering keeps results deterministic when
// creation times collide.
func (s *ProductStore) ListApprovedRecent(ctx context.Context, limit uint, exclude []int64) ([]models.Product, error) {
	ds := s.approvedDataset().
		Order(goqu.I("p.created_at").Desc(), goqu.I("p.id").Asc()).
		Limit(limit)
	if len(exclude) > 0 {
		ds = ds.Where(goqu.I("p.id").NotIn(exclude))
	}
	return s.queryProducts(ctx, ds)
}

// RandomApproved returns approved products in uniform random order,
// skipping the excluded IDs.
func (s *ProductStore) RandomApproved(ctx context.Context, limit uint, exclude []int64) ([]models.Product, error) {
	ds := s.approvedDataset().
		Order(goqu.L("random()").Asc()).
		Limit(limit)
	if len(exclude) > 0 {
		ds = ds.Where(goqu.I("p.id").NotIn(exclude))
	}
	return s.queryProducts(ctx, ds)
}

// ListApproved returns one page of approved products, newest first, plus
// the total approved count. This feeds the client-side catalog snapshot.
func (s *ProductStore) ListApproved(ctx context.Context, page, pageSize int) ([]models.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	countQuery, countArgs, err := s.builder.
		From("products").
		Select(goqu.COUNT("*")).
		Where(goqu.C("status").Eq(models.ProductStatusApproved)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build product count query: %w", err)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count approved products: %w", err)
	}

	ds := s.approvedDataset().
		Order(goqu.I("p.created_at").Desc(), goqu.I("p.id").Asc()).
		Limit(uint(pageSize)).
		Offset(uint((page - 1) * pageSize))

	products, err := s.queryProducts(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
