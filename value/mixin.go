package value

// Mixin is a reusable, named set of fields that can be embedded into
// multiple record builders, adapted from the teacher's schema/mixin
// package (a mixin there contributes fields/edges/indexes to an entity
// schema; here it only contributes fields, since the value universe has no
// entities or edges).
type Mixin interface {
	Fields() []FieldSchema
}

// ComposeFields flattens a record's own fields together with any mixed-in
// fields, mixins first (matching the teacher's embedding order), erroring on
// a name collision rather than silently shadowing.
func ComposeFields(mixins []Mixin, own []FieldSchema) ([]FieldSchema, error) {
	seen := map[string]bool{}
	out := make([]FieldSchema, 0, len(own))
	for _, m := range mixins {
		for _, f := range m.Fields() {
			if seen[f.Name] {
				return nil, &DuplicateFieldError{Field: f.Name}
			}
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	for _, f := range own {
		if seen[f.Name] {
			return nil, &DuplicateFieldError{Field: f.Name}
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

// DuplicateFieldError reports a field name collision during mixin
// composition.
type DuplicateFieldError struct{ Field string }

func (e *DuplicateFieldError) Error() string {
	return "value: duplicate field \"" + e.Field + "\" in mixin composition"
}

// IdentityMixin contributes no fields: Value identity (spec §4.1) never
// depends on a declared field, so a record needs none to take part in
// Index.identity. Schemas that want to be explicit about "no extra identity
// fields" can embed it.
type IdentityMixin struct{}

// Fields implements Mixin.
func (IdentityMixin) Fields() []FieldSchema { return nil }
