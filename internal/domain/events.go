package domain

type StockReason string

const (
	StockReasonCartAdd    StockReason = "cart_add"
	StockReasonCartUpdate StockReason = "cart_update"
	StockReasonCartRemove StockReason = "cart_remove"
)

// StockChanged describes a committed stock adjustment.
type StockChanged struct {
	ProductID  int         `json:"product_id"`
	Delta      int         `json:"delta"`
	Stock      int         `json:"stock"`
	Reason     StockReason `json:"reason"`
	UserID     int         `json:"user_id"`
	CartItemID int         `json:"cart_item_id"`
}
