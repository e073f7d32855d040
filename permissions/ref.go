package permissions

import "fmt"

// NormalizeRef converts any accepted wire shape of a user/project reference
// into the canonical string id. Historic clients send membership entries as
// bare id strings, as {"_id": ...} / {"id": ...} objects, or as populated
// documents; comparison logic never sees those shapes, only the id this
// adapter yields. Unrecognized shapes normalize to "" and match nothing.
func NormalizeRef(v interface{}) string {
	switch ref := v.(type) {
	case nil:
		return ""
	case string:
		return ref
	case map[string]interface{}:
		if id, ok := ref["_id"].(string); ok {
			return id
		}
		if id, ok := ref["id"].(string); ok {
			return id
		}
		return ""
	case fmt.Stringer:
		return ref.String()
	default:
		return ""
	}
}
