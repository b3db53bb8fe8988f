package schema

import (
	"reflect"
	"testing"
)

func sampleEntities() (order, vehicle, car *Entity) {
	id := &BasicPart{Name: "id", Column: "id", Mapping: Bigint}
	order = &Entity{
		Name:       "Order",
		Table:      "orders",
		Identifier: &Identifier{Attribute: "id", Part: id},
	}
	order.Attributes = []ModelPart{
		&BasicPart{Name: "total", Column: "total", Mapping: Numeric},
		&EmbeddedPart{Name: "address", Attributes: []ModelPart{
			&BasicPart{Name: "street", Column: "street", Mapping: Varchar},
			&BasicPart{Name: "city", Column: "city", Mapping: Varchar},
		}},
		&AnyPart{
			Name:          "payment",
			Discriminator: &BasicPart{Name: "type", Column: "payment_type", Mapping: Varchar},
			Key:           &BasicPart{Name: "ref", Column: "payment_ref", Mapping: Bigint},
		},
		&ToOnePart{Name: "customer", Relation: ManyToOne, Side: SideKey},
	}

	vehicle = &Entity{
		Name:          "Vehicle",
		Table:         "vehicles",
		Identifier:    &Identifier{Attribute: "id", Part: id},
		Discriminator: &Discriminator{Part: &BasicPart{Name: "class", Column: "dtype", Mapping: Varchar}},
		Attributes:    []ModelPart{&BasicPart{Name: "wheels", Column: "wheels", Mapping: Integer}},
	}
	car = &Entity{
		Name:       "Car",
		Table:      "cars",
		Identifier: vehicle.Identifier,
		SuperType:  vehicle,
		Attributes: []ModelPart{&BasicPart{Name: "seats", Column: "seats", Mapping: Integer}},
	}
	truck := &Entity{
		Name:       "Truck",
		Table:      "trucks",
		Identifier: vehicle.Identifier,
		SuperType:  vehicle,
		Attributes: []ModelPart{&BasicPart{Name: "payload", Column: "payload", Mapping: Double}},
	}
	vehicle.SubTypes = []*Entity{car, truck}
	return order, vehicle, car
}

func TestFindPart(t *testing.T) {
	order, vehicle, car := sampleEntities()

	var tests = []struct {
		name   string
		entity *Entity
		path   string
		want   string // expected part name, empty for not found
	}{
		{"identifier", order, "id", "id"},
		{"attribute", order, "total", "total"},
		{"embedded child", order, "address.city", "city"},
		{"any discriminator by role", order, "payment.discriminator", "type"},
		{"any key by name", order, "payment.ref", "ref"},
		{"association", order, "customer", "customer"},
		{"into association", order, "customer.id", ""},
		{"unknown", order, "nothing", ""},
		{"unknown child", order, "address.zip", ""},
		{"basic has no children", order, "total.x", ""},
		{"discriminator", vehicle, "class", "class"},
		{"inherited attribute", car, "wheels", "wheels"},
		{"subtype attribute on root", vehicle, "payload", "payload"},
		{"sibling attribute", car, "payload", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := tt.entity.FindPart(tt.path)
			got := ""
			if part != nil {
				got = part.PartName()
			}
			if got != tt.want {
				t.Errorf("\ngot %q, wanted %q", got, tt.want)
			}
		})
	}
}

func TestVisitSubTypeAttributes(t *testing.T) {
	_, vehicle, car := sampleEntities()
	sports := &Entity{
		Name:       "SportsCar",
		SuperType:  car,
		Attributes: []ModelPart{&BasicPart{Name: "turbo", Column: "turbo", Mapping: Boolean}},
	}
	car.SubTypes = []*Entity{sports}

	var tests = []struct {
		name   string
		entity *Entity
		want   []string
	}{
		{"root visits subtypes depth first", vehicle, []string{"wheels", "seats", "turbo", "payload"}},
		{"middle visits inherited then own subtree", car, []string{"wheels", "seats", "turbo"}},
		{"leaf visits inherited root first", sports, []string{"wheels", "seats", "turbo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			tt.entity.VisitSubTypeAttributes(func(p ModelPart) {
				got = append(got, p.PartName())
			})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("\ngot %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestJdbcTypeCount(t *testing.T) {
	order, _, _ := sampleEntities()
	target := order.Identifier.Part

	var tests = []struct {
		name string
		part ModelPart
		want int
	}{
		{"basic", &BasicPart{Name: "x", Mapping: Text}, 1},
		{"embedded", order.FindPart("address"), 2},
		{"any", order.FindPart("payment"), 2},
		{"plural", &PluralPart{Name: "lines"}, 0},
		{"unresolved association", &ToOnePart{Name: "a", Side: SideKey}, 0},
		{"resolved association", &ToOnePart{Name: "a", Side: SideKey, ForeignKey: &ForeignKey{TargetPart: target}}, 1},
		{"inverse association", &ToOnePart{Name: "a", Side: SideTarget, ForeignKey: &ForeignKey{TargetPart: target}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.part.JdbcTypeCount(); got != tt.want {
				t.Errorf("\ngot %d, wanted %d", got, tt.want)
			}
		})
	}
}

func TestDiscriminator(t *testing.T) {
	var tests = []struct {
		name     string
		d        *Discriminator
		physical bool
	}{
		{"nil", nil, false},
		{"column", &Discriminator{Part: &BasicPart{Name: "class", Column: "dtype"}}, true},
		{"formula", &Discriminator{Part: &BasicPart{Name: "class"}, Formula: "case when a then 1 end"}, false},
		{"formula with column", &Discriminator{Part: &BasicPart{Name: "class", Column: "dtype"}, Formula: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.IsPhysical(); got != tt.physical {
				t.Errorf("\ngot %v, wanted %v", got, tt.physical)
			}
		})
	}
}

func TestMetamodel(t *testing.T) {
	order, vehicle, car := sampleEntities()
	mm := NewMetamodel()
	for _, e := range []*Entity{vehicle, order, car} {
		if err := mm.Add(e); err != nil {
			t.Fatalf("\ngot unexpected error: \"%v\"", err)
		}
	}
	if err := mm.Add(&Entity{Name: "Order"}); err == nil {
		t.Errorf("\nexpected an error, did not receive one")
	}

	var names []string
	for _, e := range mm.Entities() {
		names = append(names, e.Name)
	}
	if want := []string{"Car", "Order", "Vehicle"}; !reflect.DeepEqual(names, want) {
		t.Errorf("\ngot %v, wanted %v", names, want)
	}
	if car.Root() != vehicle {
		t.Errorf("\ngot root %v, wanted Vehicle", car.Root().Name)
	}
	if got := order.QualifiedName(order.FindPart("total")); got != "Order.total" {
		t.Errorf("\ngot %v", got)
	}
}

func TestLookupMapping(t *testing.T) {
	var tests = []struct {
		input string
		want  JdbcMapping
		ok    bool
	}{
		{"bigint", Bigint, true},
		{" Long ", Bigint, true},
		{"STRING", Varchar, true},
		{"bytea", Binary, true},
		{"geometry", JdbcMapping{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := LookupMapping(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("\ngot (%v, %v), wanted (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
