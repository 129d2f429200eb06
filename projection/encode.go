package projection

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"projector/internal/analyze"
	"projector/internal/match"
)

// property is one serialized getter.
type property struct {
	name  string
	value any
}

// document is a serialized adapter. Properties keep contract declaration
// order, which maps would lose.
type document []property

// MarshalJSON writes the object braces and separators itself so properties
// stay in declaration order; names and values are encoded by json.Marshal.
func (d document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, p := range d {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(p.name)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (d document) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, p := range d {
		value := &yaml.Node{}
		if err := value.Encode(p.value); err != nil {
			return nil, err
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.name},
			value)
	}

	return node, nil
}

// MarshalJSON serializes the zero-parameter getters of every contract.
func (a *Adapter) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	doc, err := a.document("json")
	if err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}

// MarshalYAML serializes the zero-parameter getters of every contract as a
// YAML mapping.
func (a *Adapter) MarshalYAML() (any, error) {
	if a == nil {
		return nil, nil
	}

	doc, err := a.document("yaml")
	if err != nil {
		return nil, err
	}

	return doc.MarshalYAML()
}

func (a *Adapter) document(format string) (document, error) {
	var (
		doc  document
		seen = make(map[analyze.SignatureKey]bool)
	)

	for _, c := range a.shape.Contracts {
		for i := range c.Signatures {
			sig := &c.Signatures[i]
			if !sig.IsGetter() || sig.Name == "String" || seen[sig.Key()] {
				continue
			}

			seen[sig.Key()] = true

			name := a.propertyName(sig, format)
			if name == "-" {
				continue
			}

			entry, ok := a.shape.Entry(sig.Key())
			if !ok {
				continue
			}

			out, err := a.invoke(entry, nil)
			if err != nil {
				return nil, err
			}

			out, err = a.engine.adapt(out, sig.Result())
			if err != nil {
				return nil, err
			}

			value, err := a.engine.export(out, format)
			if err != nil {
				return nil, err
			}

			doc = append(doc, property{name: name, value: value})
		}
	}

	return doc, nil
}

// propertyName names a getter by its format tag, else by its bare name.
func (a *Adapter) propertyName(sig *analyze.Signature, format string) string {
	if tag, ok := sig.Tag.Lookup(format); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}

	return match.DictionaryKey(sig.Name, a.engine.config.GetterPrefixes)
}

// export turns an adapted getter result into a plain value: bound contracts
// become documents, collections become sequences.
func (e *Engine) export(v reflect.Value, format string) (any, error) {
	v = concrete(v)
	if isNil(v) {
		return nil, nil
	}

	switch x := v.Interface().(type) {
	case *Adapter:
		return x.document(format)
	case aggregate:
		return e.exportAggregate(x, format)
	case adapterHolder:
		if a := x.Adapter(); a != nil {
			return a.document(format)
		}
	}

	// Contracts without a Proxy marker do not lead back to their adapter.
	if e.isContract(v.Type()) {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			break
		}

		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			el, err := e.export(v.Index(i), format)
			if err != nil {
				return nil, err
			}

			out = append(out, el)
		}

		return out, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}

		out := make(map[string]any, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			el, err := e.export(iter.Value(), format)
			if err != nil {
				return nil, err
			}

			out[iter.Key().String()] = el
		}

		return out, nil
	}

	return v.Interface(), nil
}

func (e *Engine) exportAggregate(agg aggregate, format string) ([]any, error) {
	members := agg.members()
	out := make([]any, 0, len(members))

	for _, m := range members {
		el, err := e.adapt(m, agg.elemType())
		if err != nil {
			return nil, err
		}

		x, err := e.export(el, format)
		if err != nil {
			return nil, err
		}

		out = append(out, x)
	}

	return out, nil
}
