package project

// changes collects field-level differences as {"old": x, "new": y} under
// the field name.
type changes map[string]any

func (c changes) record(field string, old, next any) {
	c[field] = map[string]any{"old": old, "new": next}
}

// set assigns *v to *dst when v is non-nil and differs.
func set[T comparable](c changes, field string, dst *T, v *T) {
	if v == nil || *dst == *v {
		return
	}
	c.record(field, *dst, *v)
	*dst = *v
}

// setPtr is set for optional fields; eq decides equality.
func setPtr[T any](c changes, field string, dst **T, v *T, eq func(a, b T) bool) {
	if v == nil {
		return
	}
	if *dst != nil && eq(**dst, *v) {
		return
	}
	var old any
	if *dst != nil {
		old = **dst
	}
	val := *v
	c.record(field, old, val)
	*dst = &val
}
