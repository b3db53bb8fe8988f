package cte

import (
	"github.com/ridoystarlord/cteshape/schema"
)

// orderModel is a small mapping exercising every part variant.
type orderModel struct {
	customer *schema.Entity
	order    *schema.Entity
	lineItem *schema.Entity

	total        *schema.BasicPart
	customerRef  *schema.ToOnePart
	address      *schema.EmbeddedPart
	street       *schema.BasicPart
	city         *schema.BasicPart
	lines        *schema.PluralPart
	invoice      *schema.ToOnePart
	payment      *schema.AnyPart
	paymentType  *schema.BasicPart
	paymentKey   *schema.BasicPart
	lineItemRef  *schema.ToOnePart
	lineItemKeys *schema.EmbeddedPart
}

func newOrderModel() *orderModel {
	m := &orderModel{}

	customerID := &schema.BasicPart{Name: "id", Column: "id", Mapping: schema.Integer}
	m.customer = &schema.Entity{
		Name:       "Customer",
		Table:      "customers",
		Identifier: &schema.Identifier{Attribute: "id", Part: customerID},
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "name", Column: "name", Mapping: schema.Text},
		},
	}

	m.lineItemKeys = &schema.EmbeddedPart{
		Name: "id",
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "orderId", Column: "order_id", Mapping: schema.Bigint},
			&schema.BasicPart{Name: "lineNo", Column: "line_no", Mapping: schema.Integer},
		},
	}
	m.lineItem = &schema.Entity{
		Name:       "LineItem",
		Table:      "line_items",
		Identifier: &schema.Identifier{Part: m.lineItemKeys},
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "quantity", Column: "quantity", Mapping: schema.Integer},
		},
	}

	m.order = &schema.Entity{
		Name:       "Order",
		Table:      "orders",
		Identifier: &schema.Identifier{Attribute: "id", Part: &schema.BasicPart{Name: "id", Column: "id", Mapping: schema.Bigint}},
	}
	m.total = &schema.BasicPart{Name: "total", Column: "total", Mapping: schema.Numeric}
	m.customerRef = &schema.ToOnePart{
		Name:      "customer",
		Relation:  schema.ManyToOne,
		Target:    m.customer,
		Declaring: m.order,
		Side:      schema.SideKey,
		ForeignKey: &schema.ForeignKey{
			KeyTable:    "orders",
			TargetTable: "customers",
			KeyColumns:  []string{"customer_id"},
			TargetPart:  customerID,
		},
	}
	m.street = &schema.BasicPart{Name: "street", Column: "street", Mapping: schema.Varchar}
	m.city = &schema.BasicPart{Name: "city", Column: "city", Mapping: schema.Varchar}
	m.address = &schema.EmbeddedPart{
		Name: "address",
		Attributes: []schema.ModelPart{
			m.street,
			m.city,
			&schema.PluralPart{Name: "tags", Relation: schema.OneToMany, Element: "text"},
		},
	}
	m.lines = &schema.PluralPart{Name: "lines", Relation: schema.OneToMany, Element: "LineItem"}
	m.invoice = &schema.ToOnePart{
		Name:      "invoice",
		Relation:  schema.OneToOne,
		Declaring: m.order,
		Side:      schema.SideTarget,
		MappedBy:  "order",
		ForeignKey: &schema.ForeignKey{
			KeyTable:    "invoices",
			TargetTable: "orders",
			TargetPart:  m.order.Identifier.Part,
		},
	}
	m.paymentType = &schema.BasicPart{Name: "type", Column: "payment_type", Mapping: schema.Varchar}
	m.paymentKey = &schema.BasicPart{Name: "id", Column: "payment_id", Mapping: schema.Bigint}
	m.payment = &schema.AnyPart{Name: "payment", Discriminator: m.paymentType, Key: m.paymentKey}
	m.lineItemRef = &schema.ToOnePart{
		Name:      "lastItem",
		Relation:  schema.ManyToOne,
		Target:    m.lineItem,
		Declaring: m.order,
		Side:      schema.SideKey,
		ForeignKey: &schema.ForeignKey{
			KeyTable:    "orders",
			TargetTable: "line_items",
			TargetPart:  m.lineItemKeys,
		},
	}

	m.order.Attributes = []schema.ModelPart{
		m.total,
		m.customerRef,
		m.address,
		m.lines,
		m.invoice,
		m.payment,
		m.lineItemRef,
	}
	return m
}

// vehicleHierarchy is a single-table hierarchy with a physical discriminator.
func vehicleHierarchy() (vehicle, car, truck *schema.Entity) {
	vehicle = &schema.Entity{
		Name:       "Vehicle",
		Table:      "vehicles",
		Identifier: &schema.Identifier{Attribute: "id", Part: &schema.BasicPart{Name: "id", Column: "id", Mapping: schema.Bigint}},
		Discriminator: &schema.Discriminator{
			Part: &schema.BasicPart{Name: "dtype", Column: "dtype", Mapping: schema.Varchar},
		},
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "wheels", Column: "wheels", Mapping: schema.Integer},
		},
	}
	car = &schema.Entity{
		Name:      "Car",
		SuperType: vehicle,
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "seats", Column: "seats", Mapping: schema.Integer},
		},
	}
	truck = &schema.Entity{
		Name:      "Truck",
		SuperType: vehicle,
		Attributes: []schema.ModelPart{
			&schema.BasicPart{Name: "payload", Column: "payload", Mapping: schema.Double},
		},
	}
	vehicle.SubTypes = []*schema.Entity{car, truck}
	return vehicle, car, truck
}

func columnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
