package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the value pool the seeder draws from. The built-in catalog
// covers all three analytics domains; a YAML file can replace it wholesale
// for demo environments that want their own names.
type Catalog struct {
	Products             []Product    `yaml:"products"`
	Restaurants          []Restaurant `yaml:"restaurants"`
	Plans                []Plan       `yaml:"plans"`
	DeliveryStatuses     []string     `yaml:"delivery_statuses"`
	SubscriptionStatuses []string     `yaml:"subscription_statuses"`
}

// Product is one sellable item with its sales channel attributes.
type Product struct {
	Name          string `yaml:"name"`
	Category      string `yaml:"category"`
	Region        string `yaml:"region"`
	PaymentMethod string `yaml:"payment_method"`
}

// Restaurant is one restaurant location.
type Restaurant struct {
	Name    string `yaml:"name"`
	Cuisine string `yaml:"cuisine"`
	City    string `yaml:"city"`
}

// Plan is one subscription tier at one billing cadence.
type Plan struct {
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"` // monthly or annual
	Amount float64 `yaml:"amount"`
}

// DefaultCatalog returns the built-in sample data pool.
func DefaultCatalog() Catalog {
	return Catalog{
		Products: []Product{
			{"Laptop Pro", "Electronics", "North", "credit_card"},
			{"Laptop Pro", "Electronics", "South", "debit_card"},
			{"Laptop Pro", "Electronics", "East", "paypal"},
			{"Laptop Pro", "Electronics", "West", "credit_card"},
			{"Smartphone X", "Electronics", "North", "credit_card"},
			{"Smartphone X", "Electronics", "South", "debit_card"},
			{"Smartphone X", "Electronics", "East", "paypal"},
			{"Wireless Mouse", "Electronics", "North", "credit_card"},
			{"Office Chair", "Furniture", "North", "credit_card"},
			{"Office Chair", "Furniture", "South", "debit_card"},
			{"Desk Lamp", "Furniture", "East", "paypal"},
			{"Coffee Maker", "Appliances", "North", "credit_card"},
			{"Coffee Maker", "Appliances", "South", "debit_card"},
			{"Running Shoes", "Sports", "North", "credit_card"},
			{"Yoga Mat", "Sports", "South", "paypal"},
		},
		Restaurants: []Restaurant{
			{"Pizza Palace", "Italian", "Mumbai"},
			{"Pizza Palace", "Italian", "Delhi"},
			{"Burger King", "Fast Food", "Mumbai"},
			{"Burger King", "Fast Food", "Bangalore"},
			{"Spice Garden", "Indian", "Delhi"},
			{"Spice Garden", "Indian", "Mumbai"},
			{"Sushi House", "Japanese", "Bangalore"},
			{"Sushi House", "Japanese", "Delhi"},
			{"Taco Bell", "Mexican", "Mumbai"},
			{"Taco Bell", "Mexican", "Bangalore"},
			{"Curry Corner", "Indian", "Delhi"},
			{"Curry Corner", "Indian", "Mumbai"},
		},
		Plans: []Plan{
			{"Basic", "monthly", 9.99},
			{"Basic", "annual", 99.99},
			{"Pro", "monthly", 29.99},
			{"Pro", "annual", 299.99},
			{"Enterprise", "monthly", 99.99},
			{"Enterprise", "annual", 999.99},
		},
		DeliveryStatuses:     []string{"pending", "preparing", "out_for_delivery", "delivered", "cancelled"},
		SubscriptionStatuses: []string{"active", "cancelled", "past_due", "trialing"},
	}
}

// LoadCatalog reads a catalog from a YAML file. Sections left empty in the
// file fall back to the built-in pool, so a file can override just the
// products without restating everything else.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	defaults := DefaultCatalog()
	if len(c.Products) == 0 {
		c.Products = defaults.Products
	}
	if len(c.Restaurants) == 0 {
		c.Restaurants = defaults.Restaurants
	}
	if len(c.Plans) == 0 {
		c.Plans = defaults.Plans
	}
	if len(c.DeliveryStatuses) == 0 {
		c.DeliveryStatuses = defaults.DeliveryStatuses
	}
	if len(c.SubscriptionStatuses) == 0 {
		c.SubscriptionStatuses = defaults.SubscriptionStatuses
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects catalog entries the seeder cannot use.
func (c Catalog) Validate() error {
	for _, p := range c.Plans {
		if p.Type != "monthly" && p.Type != "annual" {
			return fmt.Errorf("plan %q has invalid type %q (must be monthly or annual)", p.Name, p.Type)
		}
		if p.Amount <= 0 {
			return fmt.Errorf("plan %q has non-positive amount %v", p.Name, p.Amount)
		}
	}
	for _, p := range c.Products {
		if p.Name == "" || p.Category == "" {
			return fmt.Errorf("product entries need a name and category")
		}
	}
	for _, r := range c.Restaurants {
		if r.Name == "" || r.City == "" {
			return fmt.Errorf("restaurant entries need a name and city")
		}
	}
	return nil
}
