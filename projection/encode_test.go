package projection_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"projector/projection"
	"projector/store"
)

type ItemDoc struct {
	projection.Proxy

	GetName     func() string `json:"title" yaml:"title"`
	GetQuantity func() int
	Subtotal    func() int64 `json:"-" yaml:"-"`
	SetQuantity func(int)
}

type CustomerDoc struct {
	projection.Proxy

	GetFullName func() string `json:"name,omitempty" yaml:"name"`
	IsActive    func() bool
}

type OrderDoc struct {
	projection.Proxy

	GetNumber   func() string
	GetCustomer func() *CustomerDoc
	GetItems    func() *projection.List[*ItemDoc]
	GetLabels   func() *projection.Set[string]
}

func TestAdapter_MarshalJSON(t *testing.T) {
	e := newEngine(t)

	item, err := projection.Project[ItemDoc](e, &store.OrderItem{Name: "pen", Quantity: 2, UnitPrice: 3})
	require.NoError(t, err)

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"pen","quantity":2}`, string(data))

	order := newOrder()
	order.Items = order.Items[:1]

	doc, err := projection.Project[OrderDoc](e, order)
	require.NoError(t, err)

	data, err = json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"number": "A-1",
		"customer": {"name": "Ada Lovelace", "active": true},
		"items": [{"title": "pen", "quantity": 2}],
		"labels": ["gift", "vip"]
	}`, string(data))

	order.Customer = nil

	data, err = json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"customer":null`)
}

func TestAdapter_MarshalJSON_Dictionary(t *testing.T) {
	e := newEngine(t)

	view, err := projection.ProjectFromMap[SettingsView](e, map[string]any{"name": "a", "enabled": "true"})
	require.NoError(t, err)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","enabled":true,"missing":null}`, string(data))
}

func TestAdapter_MarshalYAML(t *testing.T) {
	e := newEngine(t)

	order := newOrder()
	order.Items = order.Items[:2]

	doc, err := projection.Project[OrderDoc](e, order)
	require.NoError(t, err)

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	text := string(data)
	assert.Less(t, strings.Index(text, "number:"), strings.Index(text, "customer:"))
	assert.Less(t, strings.Index(text, "customer:"), strings.Index(text, "items:"))

	var decoded struct {
		Number   string
		Customer struct {
			Name   string
			Active bool
		}
		Items []struct {
			Title    string
			Quantity int
		}
	}

	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "A-1", decoded.Number)
	assert.Equal(t, "Ada Lovelace", decoded.Customer.Name)
	assert.True(t, decoded.Customer.Active)
	require.Len(t, decoded.Items, 2)
	assert.Equal(t, "ink", decoded.Items[1].Title)
	assert.Equal(t, 1, decoded.Items[1].Quantity)
}

func TestAdapter_MarshalHandler(t *testing.T) {
	e := newEngine(t)

	a, err := e.DynamicProxy(func(method string, _ []any) (any, error) {
		return strings.ToLower(method), nil
	}, reflect.TypeFor[NumberView]())
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `{"number":"getnumber"}`, string(data))
}
