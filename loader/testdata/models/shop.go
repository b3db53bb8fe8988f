package models

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	Street string `cteshape:""`
	City   string `cteshape:"type:varchar"`
	Notes  string
}

type Customer struct {
	_       struct{} `cteshape:"table:customers"`
	ID      int64    `cteshape:"id"`
	Name    string   `cteshape:"type:text"`
	Address Address  `cteshape:"embedded"`
	Orders  []Order  `cteshape:"mapped_by:customer"`
}

type Order struct {
	ID        int64     `cteshape:"id"`
	PlacedAt  time.Time `cteshape:""`
	Customer  *Customer `cteshape:"join:customer_id"`
	Invoice   *Invoice  `cteshape:"relation:one-to-one;mapped_by:order"`
	Payment   any       `cteshape:"any:varchar,bigint"`
	Tags      []string  `cteshape:""`
	checksum  string    `cteshape:""`
	Transient string    `cteshape:"-"`
}

type Invoice struct {
	ID     uuid.UUID `cteshape:"id"`
	Number string    `cteshape:""`
	Order  *Order    `cteshape:"relation:one-to-one"`
	PDF    []byte    `cteshape:""`
}

type LineItem struct {
	Order  *Order `cteshape:"id"`
	LineNo int    `cteshape:"id"`
	Qty    int    `cteshape:"column:quantity"`
}

type Vehicle struct {
	_      struct{} `cteshape:"discriminator:dtype"`
	ID     int64    `cteshape:"id"`
	Wheels int      `cteshape:""`
}

type Car struct {
	Vehicle
	Seats int `cteshape:""`
}
