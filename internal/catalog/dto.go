package catalog

// CreateProductRequest carries a new product submitted by an admin.
type CreateProductRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	Price       float64      `json:"price" validate:"required,gt=0"`
	Gender      string       `json:"gender" validate:"omitempty,oneof=men women unisex"`
	Color       string       `json:"color" validate:"max=100"`
	Fabric      string       `json:"fabric" validate:"max=100"`
	Origin      string       `json:"origin" validate:"max=100"`
	Narrative   string       `json:"narrative"`
	Images      []string     `json:"images" validate:"dive,max=500"`
	StockBySize map[Size]int `json:"stock_by_size" validate:"required"`
}

// UpdateProductRequest mirrors CreateProductRequest; stock is replaced
// through its own endpoint.
type UpdateProductRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Price     float64  `json:"price" validate:"required,gt=0"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=men women unisex"`
	Color     string   `json:"color" validate:"max=100"`
	Fabric    string   `json:"fabric" validate:"max=100"`
	Origin    string   `json:"origin" validate:"max=100"`
	Narrative string   `json:"narrative"`
	Images    []string `json:"images" validate:"dive,max=500"`
}

// ReplaceStockRequest sets the per-size counters for a product.
type ReplaceStockRequest struct {
	StockBySize map[Size]int `json:"stock_by_size" validate:"required"`
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Gender string
	Search string
	// PublicOnly excludes out-of-stock products at read time.
	PublicOnly bool
	Limit      int
	Offset     int
}
