package transform

import (
	"strings"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/pkg/errors"
)

var OrderItemColumns = []frame.Column{
	{Name: "OrderID", Type: frame.TypeText},
	{Name: "ProductID", Type: frame.TypeText},
	{Name: "SellerID", Type: frame.TypeText},
	{Name: "OrderItemID", Type: frame.TypeText},
	{Name: "Price", Type: frame.TypeFloat},
	{Name: "Quantity", Type: frame.TypeInt},
}

type orderItem struct {
	orderID   string
	productID string
	sellerID  string
	itemID    string
	price     float64
}

// OrderItems groups items by order and product-seller pair. Quantity is the number of item ids that
// were folded into the row, prices are summed.
func OrderItems(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes("OrderID", "OrderItemID", "ProductID", "SellerID", "Price")
	if err != nil {
		return nil, err
	}

	byPair := newGroups[orderItem]()
	for i, row := range raw.Rows {
		orderID, okOrder := frame.Text(row[idx["OrderID"]])
		productID, okProduct := frame.Text(row[idx["ProductID"]])
		sellerID, okSeller := frame.Text(row[idx["SellerID"]])
		if !okOrder || !okProduct || !okSeller {
			continue
		}

		itemID, ok := frame.Text(row[idx["OrderItemID"]])
		if !ok {
			return nil, errors.Errorf("row %d: OrderItemID is null", i)
		}

		price, _, err := frame.Float(row[idx["Price"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid Price", i)
		}

		// the key sorts by order first, then by the product-seller pair
		key := orderID + "\x00" + productID + "-" + sellerID
		byPair.add(key, orderItem{
			orderID:   orderID,
			productID: productID,
			sellerID:  sellerID,
			itemID:    itemID,
			price:     price,
		})
	}

	out := frame.New(OrderItemColumns...)
	for _, key := range byPair.sortedKeys() {
		items := byPair.members[key]

		ids := make([]string, len(items))
		total := 0.0
		for i, item := range items {
			ids[i] = item.itemID
			total += item.price
		}

		joined := strings.Join(sortTokens(ids), listSeparator)
		err := out.Append(
			items[0].orderID,
			items[0].productID,
			items[0].sellerID,
			joined,
			total,
			int64(len(strings.Split(joined, listSeparator))),
		)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
