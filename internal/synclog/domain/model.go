package domain

// Action is the kind of mutation a sync log entry describes.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// Tracked tables. Offline clients mirror exactly these.
const (
	TableCarBrands     = "car_brands"
	TableCarModels     = "car_models"
	TableProductBrands = "product_brands"
	TableCategories    = "categories"
	TableProducts      = "products"
	TableBundleOffers  = "bundle_offers"
	TablePromotions    = "promotions"
	TableCartItems     = "cart_items"
	TableOrders        = "orders"
	TableFavorites     = "favorites"
	TableComments      = "comments"
)

var TrackedTables = []string{
	TableCarBrands,
	TableCarModels,
	TableProductBrands,
	TableCategories,
	TableProducts,
	TableBundleOffers,
	TablePromotions,
	TableCartItems,
	TableOrders,
	TableFavorites,
	TableComments,
}

// privateTables hold rows that belong to one shopper. Their entries carry the
// owner and are only served to that owner.
var privateTables = map[string]bool{
	TableCartItems: true,
	TableOrders:    true,
	TableFavorites: true,
}

func IsPrivate(table string) bool {
	return privateTables[table]
}

func IsTracked(table string) bool {
	for _, t := range TrackedTables {
		if t == table {
			return true
		}
	}
	return false
}

// Entry is an append-only change record. Timestamp is epoch milliseconds and
// never decreases within a table in id order.
type Entry struct {
	ID        int64  `gorm:"primaryKey"`
	Table     string `gorm:"column:table_name;type:varchar(100);not null;index:idx_sync_logs_table_timestamp,priority:1"`
	RecordID  int64  `gorm:"not null"`
	Action    Action `gorm:"type:varchar(20);not null"`
	Timestamp int64  `gorm:"not null;index:idx_sync_logs_table_timestamp,priority:2"`
	// UserID is the actor. OwnerUserID is the shopper a private row belongs to.
	UserID      *int64
	OwnerUserID *int64 `gorm:"index:idx_sync_logs_owner"`
}

// VisibleTo reports whether userID may read the entry.
func (e Entry) VisibleTo(userID int64) bool {
	if !IsPrivate(e.Table) {
		return true
	}
	return userID != 0 && e.OwnerUserID != nil && *e.OwnerUserID == userID
}

func (Entry) TableName() string { return "sync_logs" }
