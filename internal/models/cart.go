package models

// CartItem is a menu item with a quantity. Carts are not persisted in
// the database; each device's cart lives in a Redis slot as a JSON
// array and is owned by that device until checkout.
type CartItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Category    string `json:"category"`
	Ready       bool   `json:"ready"`
	Image       string `json:"image"`
	Quantity    int    `json:"quantity"`
}

// CartTotal is the sum of price x quantity over all entries.
func CartTotal(items []CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Price * item.Quantity
	}
	return total
}

// CartItemCount is the sum of quantities over all entries.
func CartItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
