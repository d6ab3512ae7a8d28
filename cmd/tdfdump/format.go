package main

import (
	"fmt"
	"strings"

	"github.com/rmassey/blazetdf/wire"
)

// formatValue renders a decoded wire value as a compact single-line
// literal, preserving container order.
func formatValue(v interface{}) string {
	switch value := v.(type) {
	case uint64:
		return fmt.Sprintf("%d", value)
	case string:
		return fmt.Sprintf("%q", value)
	case []byte:
		return fmt.Sprintf("blob(%x)", value)
	case float32:
		return fmt.Sprintf("%g", value)
	case wire.Pair:
		return fmt.Sprintf("(%d, %d)", value.A, value.B)
	case wire.Triple:
		return fmt.Sprintf("(%d, %d, %d)", value.A, value.B, value.C)
	case wire.VarintList:
		parts := make([]string, len(value))
		for i, u := range value {
			parts[i] = fmt.Sprintf("%d", u)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *wire.Group:
		parts := make([]string, 0, value.Len())
		for _, f := range value.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Label, formatValue(f.Value)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *wire.List:
		parts := make([]string, 0, value.Len())
		for _, item := range value.Items {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *wire.Map:
		parts := make([]string, 0, value.Len())
		for i := 0; i < value.Len(); i++ {
			k, mv := value.At(i)
			parts = append(parts, fmt.Sprintf("%s: %s", formatValue(k), formatValue(mv)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *wire.Union:
		if value.Unset() {
			return "union(unset)"
		}
		return fmt.Sprintf("union(0x%02X, %s: %s)",
			value.Discriminant, value.Field.Label, formatValue(value.Field.Value))
	default:
		return fmt.Sprintf("%v", value)
	}
}
