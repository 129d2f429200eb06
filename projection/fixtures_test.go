package projection_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"projector/projection"
	"projector/store"
)

type valueSource struct {
	value string
}

func (s *valueSource) GetValue() string { return s.value }

func (s *valueSource) SetValue(v string) { s.value = v }

func (s *valueSource) Dummy(a, b, c, d string) string { return a + b + c + d }

func (s *valueSource) GetSubProjection() *subSource { return &subSource{} }

type subSource struct{}

func (subSource) GetSub() string { return "sub" }

type ValueView struct {
	projection.Proxy

	GetValue            func() string
	SetValue            func(string)
	Dummy               func(a, b, c, d string) string
	GetNonPresentString func() *string
	GetSubProjection    func() *SubView
}

type SubView struct {
	GetSub func() string
}

type NumbersView struct {
	GetInt    func() int
	GetString func() string
	GetDouble func() float64
	GetLong   func() int64
	GetFloat  func() float32
}

type SettingsView struct {
	projection.Proxy

	GetName    func() string
	SetName    func(string)
	IsEnabled  func() bool
	SetEnabled func(bool)
	GetMissing func() *SubView
	String     func() string
	Equal      func(any) bool
}

type OrderView struct {
	projection.Proxy

	GetNumber              func() string
	SetNumber              func(string)
	GetStatus              func() string
	SetStatus              func(string)
	GetCustomerFullName    func() string
	GetCustomerAddressCity func() string
	GetCustomerIsActive    func() bool
	GetCustomerGreeting    func(string) string
	GetCreatedBy           func() string
	TotalCents             func() float64
	Cancel                 func() error
	GetItems               func() *projection.List[*ItemView]
	GetLabels              func() *projection.Set[string]
	GetMetaChannel         func() string
	SetMetaChannel         func(string)
}

type ItemView struct {
	projection.Proxy

	GetName     func() string
	GetQuantity func() int
	SetQuantity func(int)
	Subtotal    func() int64
}

type NumberView struct {
	GetNumber func() string
}

type StatusView struct {
	GetStatus func() store.OrderStatus
	Cancel    func() error
}

type node struct {
	Float  float64
	Sub    *node
	Parent *node
}

type NodeView struct {
	GetSubParentSubParentFloat func() float64
}

type ticket struct {
	Ref    string
	Amount int64
}

type TicketView struct {
	GetRef    func() (uuid.UUID, error)
	GetAmount func() float64
}

type StrictTicketView struct {
	GetRef func() uuid.UUID
}

func newEngine(t *testing.T, opts ...projection.Option) *projection.Engine {
	t.Helper()

	e, err := projection.New(opts...)
	require.NoError(t, err)

	return e
}

func newOrder() *store.Order {
	return &store.Order{
		Audit:  store.Audit{CreatedBy: "ops"},
		Number: "A-1",
		Status: store.StatusPending,
		Customer: &store.Customer{
			FullName: "Ada Lovelace",
			Address:  &store.Address{City: "London"},
			IsActive: true,
		},
		Items: []store.OrderItem{
			{Name: "pen", Quantity: 2, UnitPrice: 150},
			{Name: "ink", Quantity: 1, UnitPrice: 700},
			{Name: "pad", Quantity: 3, UnitPrice: 200},
		},
		Labels: map[string]struct{}{"vip": {}, "gift": {}},
	}
}
