package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Region    string
	Address   string
	CreatedAt time.Time
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Origin      string
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category string

const (
	CategorySpices   Category = "SPICES"
	CategoryTextiles Category = "TEXTILES"
	CategoryPottery  Category = "POTTERY"
	CategoryMetals   Category = "METALS"
	CategoryWeapons  Category = "WEAPONS"
	CategoryJewelry  Category = "JEWELRY"
	CategoryTools    Category = "TOOLS"
	CategoryOther    Category = "OTHER"
)

var categoryLabels = map[Category]string{
	CategorySpices:   "Spices",
	CategoryTextiles: "Textiles",
	CategoryPottery:  "Pottery",
	CategoryMetals:   "Precious Metals",
	CategoryWeapons:  "Weapons",
	CategoryJewelry:  "Jewelry",
	CategoryTools:    "Tools",
	CategoryOther:    "Other Goods",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Display() string {
	return categoryLabels[c]
}

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	DateJoined   time.Time
}
