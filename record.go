package blazetdf

import (
	"fmt"

	"github.com/rmassey/blazetdf/schema"
	"github.com/rmassey/blazetdf/wire"
)

// Dynamic record API: encode and decode map bodies against an ordered
// descriptor, for callers that do not want to declare Go structs.

// EncodeRecord encodes a map keyed by Go field names against the
// descriptor's declared field order. Map entries the descriptor does
// not name are ignored; descriptor fields absent from the map are
// omitted from the body.
func EncodeRecord(data map[string]interface{}, rec *schema.Record) ([]byte, error) {
	g, err := recordToGroup(data, rec)
	if err != nil {
		return nil, err
	}
	return wire.EncodeBody(g)
}

// DecodeRecord decodes body bytes into a map keyed by the descriptor's
// Go field names. Wire fields may arrive in any order; unknown fields
// are skipped.
func DecodeRecord(data []byte, rec *schema.Record) (map[string]interface{}, error) {
	g, err := wire.DecodeBody(data)
	if err != nil {
		return nil, err
	}
	return groupToRecord(g, rec)
}

func recordToGroup(data map[string]interface{}, rec *schema.Record) (*wire.Group, error) {
	g := wire.NewGroup()
	g.Start2 = rec.Start2

	for _, f := range rec.Fields {
		value, ok := data[f.Name]
		if !ok {
			continue
		}
		converted, err := recordValue(value, f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.Name, err)
		}
		if err := g.Add(f.Label, converted); err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.Name, err)
		}
	}
	return g, nil
}

// recordValue converts a dynamic input into the wire value the
// descriptor declares for the field, recursing into nested records.
func recordValue(value interface{}, f *schema.Field) (interface{}, error) {
	switch f.Type {
	case wire.TypeGroup:
		nested, ok := value.(map[string]interface{})
		if !ok {
			// Pre-built groups pass through unchanged.
			return value, nil
		}
		return recordToGroup(nested, f.Record)

	case wire.TypeList:
		items, ok := value.([]interface{})
		if !ok {
			return value, nil
		}
		l := wire.NewList(f.Elem)
		for _, item := range items {
			converted := item
			if f.Elem == wire.TypeGroup {
				var err error
				if converted, err = recordValue(item, &schema.Field{Type: wire.TypeGroup, Record: f.Record}); err != nil {
					return nil, err
				}
			}
			if err := l.Add(converted); err != nil {
				return nil, err
			}
		}
		return l, nil

	default:
		return value, nil
	}
}

func groupToRecord(g *wire.Group, rec *schema.Record) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for _, f := range rec.Fields {
		raw, ok := g.Get(f.Label)
		if !ok {
			continue
		}
		value, err := dynamicValue(raw, f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", f.Name, err)
		}
		result[f.Name] = value
	}
	return result, nil
}

func dynamicValue(raw interface{}, f *schema.Field) (interface{}, error) {
	switch f.Type {
	case wire.TypeGroup:
		ng, ok := raw.(*wire.Group)
		if !ok {
			return nil, typeMismatch(f, raw)
		}
		if f.Record == nil {
			return ng, nil
		}
		return groupToRecord(ng, f.Record)

	case wire.TypeList:
		l, ok := raw.(*wire.List)
		if !ok {
			return nil, typeMismatch(f, raw)
		}
		if f.Elem != wire.TypeGroup || f.Record == nil {
			return l.Items, nil
		}
		out := make([]interface{}, 0, l.Len())
		for _, item := range l.Items {
			ng, ok := item.(*wire.Group)
			if !ok {
				return nil, typeMismatch(f, item)
			}
			nested, err := groupToRecord(ng, f.Record)
			if err != nil {
				return nil, err
			}
			out = append(out, nested)
		}
		return out, nil

	default:
		return raw, nil
	}
}
