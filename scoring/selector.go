package scoring

import "github.com/chip-race/league-server/models"

type selectorKind int

const (
	selectorDefault selectorKind = iota
	selectorExplicit
	selectorSuppressed
)

// SchemaSelector says which formula a point calculation should use. It
// replaces the stringly-typed convention the stores use, where an empty
// schema reference means "no override" and the literal "null" means
// "explicitly award zero points".
type SchemaSelector struct {
	kind     selectorKind
	schemaID string
}

// DefaultSelector requests the legacy hard-coded formula for the event's
// ranking type.
func DefaultSelector() SchemaSelector {
	return SchemaSelector{kind: selectorDefault}
}

// SelectSchema requests the data-driven schema with the given id. An empty
// id degrades to the default selector.
func SelectSchema(id string) SchemaSelector {
	if id == "" {
		return DefaultSelector()
	}
	return SchemaSelector{kind: selectorExplicit, schemaID: id}
}

// SuppressPoints forces a zero-point award regardless of inputs.
func SuppressPoints() SchemaSelector {
	return SchemaSelector{kind: selectorSuppressed}
}

// ParseSchemaRef converts a stored schema reference into a selector.
func ParseSchemaRef(ref string) SchemaSelector {
	switch ref {
	case "":
		return DefaultSelector()
	case models.SchemaRefSuppressed:
		return SuppressPoints()
	default:
		return SelectSchema(ref)
	}
}

func (s SchemaSelector) IsDefault() bool    { return s.kind == selectorDefault }
func (s SchemaSelector) IsExplicit() bool   { return s.kind == selectorExplicit }
func (s SchemaSelector) IsSuppressed() bool { return s.kind == selectorSuppressed }

// SchemaID returns the requested schema id; empty unless the selector is
// explicit.
func (s SchemaSelector) SchemaID() string { return s.schemaID }
