package commerce

// Price is a monetary amount as reported by the store.
type Price struct {
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// Product is a catalog entry.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Weight      struct {
		Kg float64 `json:"kg"`
	} `json:"weight"`
	Meta struct {
		DisplayPrice struct {
			WithTax Price `json:"with_tax"`
		} `json:"display_price"`
		Stock struct {
			Level        int    `json:"level"`
			Availability string `json:"availability"`
		} `json:"stock"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

// MainImageID returns the id of the product's main image file, or "".
func (p *Product) MainImageID() string {
	if p.Relationships.MainImage.Data == nil {
		return ""
	}
	return p.Relationships.MainImage.Data.ID
}

// Cart holds the cart totals.
type Cart struct {
	ID   string `json:"id"`
	Meta struct {
		DisplayPrice struct {
			WithTax Price `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit  Price `json:"unit"`
				Value Price `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

// Customer is a store customer record.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type file struct {
	ID   string `json:"id"`
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}
