package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/DesumovJP/flowerpos/pkg/db/models"
	"github.com/DesumovJP/flowerpos/pkg/enums"
)

// Item is the catalog view the terminal works with. ID is the item slug, the
// identifier journal entries reference.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	OnHand    int             `json:"onHandQuantity"`
	Kind      enums.ItemKind  `json:"kind"`
}

// SaleApplication is one stock decrement requested after a logged sale.
type SaleApplication struct {
	ItemID   string
	Quantity int
}

func itemFromModel(m models.Item) Item {
	return Item{
		ID:        m.Slug,
		Name:      m.Name,
		UnitPrice: m.UnitPrice,
		OnHand:    m.OnHandQty,
		Kind:      m.Kind,
	}
}
