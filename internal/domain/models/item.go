package models

// Item is a stocked product. Category and Brand are populated by joins.
type Item struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name"`
	Model          string    `json:"model,omitempty"`
	Specifications string    `json:"specifications,omitempty"`
	Warranty       string    `json:"warranty,omitempty"`
	Price          float64   `json:"price"`
	Amount         int       `json:"amount"`
	CategoryID     *string   `json:"category_id,omitempty"`
	BrandID        *string   `json:"brand_id,omitempty"`
	DateAdded      string    `json:"date_added,omitempty"`
	Category       *Category `json:"categories,omitempty" gorm:"foreignKey:CategoryID"`
	Brand          *Brand    `json:"brands,omitempty" gorm:"foreignKey:BrandID"`
}

// CategoryName returns the joined category name or an empty string.
func (i Item) CategoryName() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Name
}

// BrandName returns the joined brand name or an empty string.
func (i Item) BrandName() string {
	if i.Brand == nil {
		return ""
	}
	return i.Brand.Name
}

// Category groups items for the distribution chart.
type Category struct {
	ID   string `json:"id,omitempty" gorm:"primaryKey"`
	Name string `json:"name"`
}

// Brand is the manufacturer of an item.
type Brand struct {
	ID   string `json:"id,omitempty" gorm:"primaryKey"`
	Name string `json:"name"`
}

// Customer is the buyer referenced by an order.
type Customer struct {
	ID    string `json:"id,omitempty" gorm:"primaryKey"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ItemInput is the create/update payload accepted by the items endpoints.
type ItemInput struct {
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	Specifications string  `json:"specifications"`
	Warranty       string  `json:"warranty"`
	Price          float64 `json:"price"`
	Amount         int     `json:"amount"`
	BrandID        string  `json:"brand_id"`
	CategoryID     string  `json:"category_id"`
	DateAdded      string  `json:"date_added"`
}
