package projection_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"projector/internal/analyze"
	"projector/internal/plan"
	"projector/primitive"
	"projector/projection"
	"projector/store"
)

func TestProject_ValueSource(t *testing.T) {
	e := newEngine(t)
	src := &valueSource{value: "value"}

	view, err := projection.Project[ValueView](e, src)
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, "value", view.GetValue())

	view.SetValue("value1")
	assert.Equal(t, "value1", view.GetValue())
	assert.Equal(t, "value1", src.value)

	assert.Equal(t, "1234", view.Dummy("1", "2", "3", "4"))
	assert.Nil(t, view.GetNonPresentString())
	assert.Equal(t, "sub", view.GetSubProjection().GetSub())

	assert.Same(t, src, view.RawValue())
	assert.Same(t, src, projection.Unwrap(view))
}

func TestProjectFromMap(t *testing.T) {
	e := newEngine(t)

	m := map[string]any{"int": "5", "string": 6.0, "double": "7", "long": "8"}

	view, err := projection.ProjectFromMap[NumbersView](e, m)
	require.NoError(t, err)

	assert.Equal(t, 5, view.GetInt())
	assert.Equal(t, "6.0", view.GetString())
	assert.Equal(t, 7.0, view.GetDouble())
	assert.Equal(t, int64(8), view.GetLong())
	assert.Equal(t, float32(0), view.GetFloat())
}

func TestProjectFromMap_WritesAndEquality(t *testing.T) {
	e := newEngine(t)

	m := map[string]any{"name": "a"}

	view, err := projection.ProjectFromMap[SettingsView](e, m)
	require.NoError(t, err)

	assert.False(t, view.IsEnabled())
	assert.Nil(t, view.GetMissing())

	view.SetName("b")
	view.SetEnabled(true)

	assert.Equal(t, map[string]any{"name": "b", "enabled": true}, m)
	assert.Equal(t, "b", view.GetName())
	assert.True(t, view.IsEnabled())
	assert.Equal(t, "map[enabled:true name:b]", view.String())

	assert.True(t, view.Equal(map[string]any{"name": "b", "enabled": true}))
	assert.False(t, view.Equal(map[string]any{"name": "c"}))
	assert.False(t, view.Equal("b"))

	other, err := projection.ProjectFromMap[SettingsView](e, map[string]any{"name": "b", "enabled": true})
	require.NoError(t, err)
	assert.True(t, view.Equal(other))
}

func TestProjectFromMap_Nested(t *testing.T) {
	e := newEngine(t)

	type ProfileView struct {
		GetProfile func() *SubView
	}

	view, err := projection.ProjectFromMap[ProfileView](e, map[string]any{
		"profile": map[string]any{"sub": "nested"},
	})
	require.NoError(t, err)

	assert.Equal(t, "nested", view.GetProfile().GetSub())
}

func TestProjectFromMap_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := projection.ProjectFromMap[NumbersView](e, map[int]any{})
	require.ErrorIs(t, err, projection.ErrNotDictionary)

	_, err = projection.ProjectFromMap[NumbersView](e, newOrder())
	require.ErrorIs(t, err, projection.ErrNotDictionary)

	view, err := projection.ProjectFromMap[NumbersView](e, nil)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestProject_Paths(t *testing.T) {
	e := newEngine(t)
	order := newOrder()

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	assert.Equal(t, "A-1", view.GetNumber())
	assert.Equal(t, "PENDING", view.GetStatus())
	assert.Equal(t, "Ada Lovelace", view.GetCustomerFullName())
	assert.Equal(t, "London", view.GetCustomerAddressCity())
	assert.True(t, view.GetCustomerIsActive())
	assert.Equal(t, "hi Ada Lovelace", view.GetCustomerGreeting("hi"))
	assert.Equal(t, "ops", view.GetCreatedBy())
	assert.Equal(t, 1600.0, view.TotalCents())
	assert.Empty(t, view.GetMetaChannel())

	view.SetNumber("A-2")
	view.SetStatus("PAID")
	view.SetMetaChannel("web")

	assert.Equal(t, "A-2", order.Number)
	assert.Equal(t, store.StatusPaid, order.Status)
	assert.Equal(t, map[string]any{"channel": "web"}, order.Meta)
	assert.Equal(t, "web", view.GetMetaChannel())

	require.NoError(t, view.Cancel())
	assert.Equal(t, store.StatusCancelled, order.Status)

	order.Status = store.StatusShipped
	require.ErrorIs(t, view.Cancel(), store.ErrShipped)
}

func TestProject_NullSafety(t *testing.T) {
	e := newEngine(t)
	order := &store.Order{Number: "B-1"}

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	assert.Empty(t, view.GetCustomerFullName())
	assert.Empty(t, view.GetCustomerAddressCity())
	assert.False(t, view.GetCustomerIsActive())
	assert.Empty(t, view.GetCustomerGreeting("hi"))
	assert.Zero(t, view.TotalCents())

	order.Customer = &store.Customer{FullName: "Grace"}
	assert.Equal(t, "Grace", view.GetCustomerFullName())
	assert.Empty(t, view.GetCustomerAddressCity())

	nilView, err := projection.Project[OrderView](e, (*store.Order)(nil))
	require.NoError(t, err)
	assert.Nil(t, nilView)

	nilView, err = projection.Project[OrderView](e, nil)
	require.NoError(t, err)
	assert.Nil(t, nilView)
}

func TestProject_LongPath(t *testing.T) {
	e := newEngine(t)

	root := &node{Sub: &node{Parent: &node{Sub: &node{Parent: &node{Float: 1.5}}}}}

	view, err := projection.Project[NodeView](e, root)
	require.NoError(t, err)
	assert.Equal(t, 1.5, view.GetSubParentSubParentFloat())

	root.Sub.Parent.Sub = nil
	assert.Zero(t, view.GetSubParentSubParentFloat())
}

func TestProject_ValueCopy(t *testing.T) {
	e := newEngine(t)
	order := store.Order{Number: "C-1"}

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	view.SetNumber("C-2")

	assert.Equal(t, "C-1", order.Number)
	raw, ok := view.RawValue().(store.Order)
	require.True(t, ok)
	assert.Equal(t, "C-2", raw.Number)
}

func TestProject_Coercion(t *testing.T) {
	e := newEngine(t)

	id := uuid.New()
	view, err := projection.Project[TicketView](e, &ticket{Ref: id.String(), Amount: 42})
	require.NoError(t, err)

	ref, err := view.GetRef()
	require.NoError(t, err)
	assert.Equal(t, id, ref)
	assert.Equal(t, 42.0, view.GetAmount())

	broken, err := projection.Project[TicketView](e, &ticket{Ref: "not-a-uuid"})
	require.NoError(t, err)

	_, err = broken.GetRef()

	var convErr *primitive.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "not-a-uuid", convErr.Value)

	strict, err := projection.Project[StrictTicketView](e, &ticket{Ref: "not-a-uuid"})
	require.NoError(t, err)
	assert.Panics(t, func() { strict.GetRef() })
}

func TestProject_Casters(t *testing.T) {
	type cents int64

	type PriceView struct {
		GetPrice func() cents
	}

	type priced struct {
		Price string
	}

	e := newEngine(t, projection.WithCasters(func(s string) (cents, bool) {
		if s == "" {
			return 0, false
		}

		return cents(len(s)), true
	}))

	view, err := projection.Project[PriceView](e, &priced{Price: "abc"})
	require.NoError(t, err)
	assert.Equal(t, cents(3), view.GetPrice())

	_, err = projection.New(projection.WithCasters(42))
	require.ErrorIs(t, err, primitive.ErrCasterIsNotAFunction)
}

func TestProjectMultiple(t *testing.T) {
	e := newEngine(t)
	order := newOrder()

	a, err := e.ProjectMultiple(order, reflect.TypeFor[NumberView](), reflect.TypeFor[StatusView]())
	require.NoError(t, err)

	assert.Equal(t, []reflect.Type{reflect.TypeFor[NumberView](), reflect.TypeFor[StatusView]()}, a.Contracts())

	number, err := projection.Bind[NumberView](a)
	require.NoError(t, err)
	assert.Equal(t, "A-1", number.GetNumber())

	status, err := projection.Bind[StatusView](a)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, status.GetStatus())
	require.NoError(t, status.Cancel())
	assert.Equal(t, store.StatusCancelled, order.Status)

	_, err = projection.Bind[ValueView](a)
	require.ErrorIs(t, err, projection.ErrContractNotInShape)

	assert.Same(t, order, projection.Unwrap(a))
	assert.True(t, a.Equal(newOrderWith(store.StatusCancelled)))
}

func newOrderWith(status store.OrderStatus) *store.Order {
	order := newOrder()
	order.Status = status

	return order
}

func TestProjectMultiple_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := e.ProjectMultiple(newOrder())
	require.ErrorIs(t, err, projection.ErrNoContracts)

	_, err = e.ProjectMultiple(newOrder(), reflect.TypeFor[int]())
	require.ErrorIs(t, err, projection.ErrNotContract)

	type brokenView struct {
		GetPair func() (int, int)
	}

	_, err = e.ProjectMultiple(newOrder(), reflect.TypeFor[brokenView]())
	require.ErrorIs(t, err, projection.ErrAdapterConstruction)
	require.ErrorIs(t, err, analyze.ErrInvalidContract)

	var constructionErr *projection.ConstructionError
	require.ErrorAs(t, err, &constructionErr)
	assert.Contains(t, constructionErr.Shape, "brokenView")
}

func TestAdapter_CallAndExplain(t *testing.T) {
	e := newEngine(t)

	a, err := e.ProjectMultiple(newOrder(), reflect.TypeFor[OrderView]())
	require.NoError(t, err)

	number, err := a.Call("GetNumber")
	require.NoError(t, err)
	assert.Equal(t, "A-1", number)

	greeting, err := a.Call("GetCustomerGreeting", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello Ada Lovelace", greeting)

	_, err = a.Call("SetStatus", store.StatusPaid)
	require.NoError(t, err)

	status, err := a.Call("GetStatus")
	require.NoError(t, err)
	assert.Equal(t, "PAID", status)

	_, err = a.Call("Nope")
	require.ErrorIs(t, err, projection.ErrMethodNotFound)

	_, err = a.Call("GetNumber", "extra")
	require.ErrorIs(t, err, projection.ErrMethodNotFound)

	explain := a.Explain()
	assert.Contains(t, explain, "GetNumber(): direct: GetNumber()")
	assert.Contains(t, explain, "GetCustomerFullName(): path: Customer.FullName")
	assert.Contains(t, explain, "SetNumber(string): store: Number")
}

func TestProject_Defaults(t *testing.T) {
	e := newEngine(t)

	view, err := projection.Project[LabelView](e, newOrder())
	require.NoError(t, err)

	assert.Equal(t, "A-1", view.GetNumber())
	assert.Equal(t, "#A-1", view.Label())
	assert.Equal(t, "order A-1", view.Describe("order"))
}

type LabelView struct {
	GetNumber func() string
	Label     func() string
	Describe  func(kind string) string
}

func (v *LabelView) ProjectionDefaults() map[string]any {
	return map[string]any{
		"GetNumber": func() string { return "default" },
		"Label":     func() string { return "#" + v.GetNumber() },
		"Describe":  func(kind string) string { return kind + " " + v.GetNumber() },
	}
}

type LabelHolder struct {
	LabelView

	GetStatus func() string
}

func TestProject_InheritedDefaults(t *testing.T) {
	e := newEngine(t)

	view, err := projection.Project[LabelHolder](e, newOrder())
	require.NoError(t, err)

	assert.Equal(t, "PENDING", view.GetStatus())
	assert.Equal(t, "#A-1", view.Label())
}

func TestNewProxy(t *testing.T) {
	type GreeterView struct {
		Greet func(name string) (string, error)
		Count func() int
		Log   func(format string, args ...any)
	}

	e := newEngine(t)

	var calls []string

	view, err := projection.NewProxy[GreeterView](e, func(method string, args []any) (any, error) {
		calls = append(calls, method)

		switch method {
		case "Greet":
			if args[0] == "" {
				return nil, assert.AnError
			}

			return "hello " + args[0].(string), nil
		case "Count":
			return "42", nil
		case "Log":
			assert.Equal(t, []any{"%d-%d", []any{1, 2}}, args)
		}

		return nil, nil
	})
	require.NoError(t, err)

	greeting, err := view.Greet("ada")
	require.NoError(t, err)
	assert.Equal(t, "hello ada", greeting)

	_, err = view.Greet("")
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 42, view.Count())
	view.Log("%d-%d", 1, 2)

	assert.Equal(t, []string{"Greet", "Greet", "Count", "Log"}, calls)

	_, err = projection.NewProxy[GreeterView](e, nil)
	require.ErrorIs(t, err, projection.ErrNilHandler)
}

func TestProject_UnresolvedMethods(t *testing.T) {
	type PartialView struct {
		GetNumber   func() string
		GetNumbr    func() string
		GetPriority func() int
		GetOwner    func() *SubView
	}

	core, logs := observer.New(zap.InfoLevel)
	e := newEngine(t, projection.WithLogger(zap.New(core)))

	view, err := projection.Project[PartialView](e, newOrder())
	require.NoError(t, err)

	assert.Equal(t, "A-1", view.GetNumber())
	assert.Empty(t, view.GetNumbr())
	assert.Zero(t, view.GetPriority())
	assert.Nil(t, view.GetOwner())

	unresolved := logs.FilterMessage("Contract method unresolved").All()
	require.Len(t, unresolved, 3)
	assert.Equal(t, "unresolved_method", unresolved[0].ContextMap()["code"])
	assert.Contains(t, unresolved[0].ContextMap()["suggestions"], "Number")
}

func TestProject_StrictMode(t *testing.T) {
	type PartialView struct {
		GetNumber func() string
		GetNumbr  func() string
	}

	config := projection.DefaultConfig()
	config.StrictMode = true

	e := newEngine(t, projection.WithConfig(config))

	_, err := projection.Project[PartialView](e, newOrder())
	require.ErrorIs(t, err, projection.ErrAdapterConstruction)
	require.ErrorIs(t, err, plan.ErrUnresolvedMethods)
	assert.Contains(t, err.Error(), "GetNumbr")

	_, err = projection.Project[PartialView](e, newOrder())
	require.ErrorIs(t, err, projection.ErrAdapterConstruction)

	view, err := projection.Project[NumberView](e, newOrder())
	require.NoError(t, err)
	assert.Equal(t, "A-1", view.GetNumber())

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Builds)
	assert.Equal(t, 1, stats.Shapes)
}

func TestUnwrap(t *testing.T) {
	e := newEngine(t)
	order := newOrder()

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	assert.Same(t, order, projection.Unwrap(view))
	assert.Same(t, order, projection.Unwrap(view.Adapter()))
	assert.Equal(t, 5, projection.Unwrap(5))
	assert.Nil(t, projection.Unwrap(nil))

	var nilAdapter *projection.Adapter
	assert.Nil(t, projection.Unwrap(nilAdapter))

	items := view.GetItems()
	assert.Equal(t, order.Items, projection.Unwrap(items))

	again, err := projection.Project[NumberView](e, view)
	require.NoError(t, err)
	assert.Equal(t, "A-1", again.GetNumber())
}

type person struct {
	Name string
	Age  int
}

func nameOf(e *projection.Engine, v any) (string, error) {
	type View struct {
		GetName func() string
	}

	view, err := projection.Project[View](e, v)
	if err != nil {
		return "", err
	}

	return view.GetName(), nil
}

func ageOf(e *projection.Engine, v any) (int, error) {
	type View struct {
		GetAge func() int
	}

	view, err := projection.Project[View](e, v)
	if err != nil {
		return 0, err
	}

	return view.GetAge(), nil
}

func TestProject_SameNamedContracts(t *testing.T) {
	e := newEngine(t)
	p := &person{Name: "Ada", Age: 36}

	name, err := nameOf(e, p)
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	age, err := ageOf(e, p)
	require.NoError(t, err)
	assert.Equal(t, 36, age)

	assert.Equal(t, 2, e.Stats().Shapes)
}
