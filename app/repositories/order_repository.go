package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// OrderQuery selects a page of orders, newest first.
type OrderQuery struct {
	Cursor string
	Search string
	Limit  int
}

// OrderRepository handles database operations for Order.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order together with its items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// FindByID loads an order with items; nil when absent.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	found, err := orm.New(ctx, r.db).Where("id = ?", id).Preload("Items").First(&o)
	if err != nil || !found {
		return nil, err
	}
	return &o, nil
}

// SetStatus moves the order from one status to another. It reports false
// when the order is no longer in from, so concurrent transitions cannot
// both succeed.
func (r *OrderRepository) SetStatus(ctx context.Context, id, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// List returns orders newest first with items and their product. Search
// matches the order id or any item's product name as a case-sensitive
// substring. Cursor
// starts the page strictly after that order; an unknown cursor yields an
// empty page.
func (r *OrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	orders := []models.Order{}
	query := orm.New(ctx, r.db).Model(&models.Order{})

	if q.Search != "" {
		dialect := r.db.Dialector.Name()
		byProduct := r.db.Table("order_items").
			Select("order_items.order_id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where(containsExpr(dialect, "products.name"), q.Search)
		query = query.Where(r.db.Where(containsExpr(dialect, "orders.id"), q.Search).Or("orders.id IN (?)", byProduct))
	}

	if q.Cursor != "" {
		var anchor models.Order
		found, err := orm.New(ctx, r.db).Where("id = ?", q.Cursor).First(&anchor)
		if err != nil || !found {
			return orders, err
		}
		query = query.Where("orders.created_at < ? OR (orders.created_at = ? AND orders.id < ?)",
			anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}

	err := query.
		Preload("Items.Product").
		Order("orders.created_at DESC").Order("orders.id DESC").
		Limit(q.Limit).
		Get(&orders)
	return orders, err
}

// containsExpr is a case-sensitive substring test of column against one bind
// parameter. LIKE folds ASCII case on sqlite and on the default mysql and
// sqlserver collations.
func containsExpr(dialect, column string) string {
	switch dialect {
	case "postgres":
		return "strpos(" + column + ", ?) > 0"
	case "mysql":
		return "INSTR(BINARY " + column + ", ?) > 0"
	case "sqlserver":
		return "CHARINDEX(?, " + column + " COLLATE Latin1_General_CS_AS) > 0"
	default:
		return "instr(" + column + ", ?) > 0"
	}
}
