package models

import "github.com/shopspring/decimal"

// DefaultImageURL stands in for products without any stored image.
const DefaultImageURL = "default-image-url"

// MaxLineQuantity caps the quantity of a single cart line. Keep in sync with
// the lte tags below and the cart_items check constraint.
const MaxLineQuantity = 10000

// Prices travel as JSON numbers. decimal still writes the exact digits, no
// float rounding is involved.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// CartLine is one persisted (user, product, quantity) row. Quantity is at
// least 1 while the row exists.
type CartLine struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLineDetail is a cart line joined with the product columns the view needs.
type CartLineDetail struct {
	CartLine
	Name        string
	Description string
	Price       decimal.Decimal
}

type CartProduct struct {
	ProductID    int64           `json:"product_id"`
	ImageURL     string          `json:"image_url"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type CartContents struct {
	Products          []CartProduct   `json:"products"`
	OverallTotalPrice decimal.Decimal `json:"overall_total_price"`
}

type CartView struct {
	Username string       `json:"username"`
	Role     Role         `json:"role"`
	Cart     CartContents `json:"cart"`
}

type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity,omitempty" validate:"omitempty,gt=0,lte=10000"`
}

// QuantityOrDefault returns the requested quantity, 1 when omitted.
func (r *AddToCartRequest) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}

	return *r.Quantity
}

// a quantity of zero or less removes the line
type UpdateCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"required,lte=10000"`
}

type DeleteCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type CartCountResponse struct {
	Count int `json:"count"`
}

type ClearCartResponse struct {
	Removed int64 `json:"removed"`
}
