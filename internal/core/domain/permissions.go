package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PermissionsKind tags which representation a Permissions value carries.
type PermissionsKind int

const (
	// PermissionsNone means the backend sent no permissions at all.
	PermissionsNone PermissionsKind = iota
	// PermissionsLegacy is the flat list of page IDs older accounts still carry.
	PermissionsLegacy
	// PermissionsStructured is the module → page → read/write mapping.
	PermissionsStructured
)

func (k PermissionsKind) String() string {
	switch k {
	case PermissionsLegacy:
		return "legacy"
	case PermissionsStructured:
		return "structured"
	default:
		return "none"
	}
}

// AccessFlags are the per-page grants of the structured representation.
type AccessFlags struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// ModuleGrant lists the pages granted inside one module.
type ModuleGrant struct {
	Pages map[string]AccessFlags `json:"pages"`
}

// Permissions is a tagged union over the two representations the backend
// emits. On the wire a JSON array decodes to the legacy form and a JSON object
// to the structured form.
//
// Legacy values are only ever produced by decoding; new grants are always
// structured.
type Permissions struct {
	kind    PermissionsKind
	ids     []string
	idSet   map[string]struct{}
	modules map[string]ModuleGrant
}

// LegacyPermissions builds the legacy form. It exists for decoding and tests.
func LegacyPermissions(ids ...string) Permissions {
	p := Permissions{
		kind:  PermissionsLegacy,
		ids:   append([]string(nil), ids...),
		idSet: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		p.idSet[id] = struct{}{}
	}
	return p
}

// StructuredPermissions builds the structured form.
func StructuredPermissions(modules map[string]ModuleGrant) Permissions {
	if modules == nil {
		modules = map[string]ModuleGrant{}
	}
	return Permissions{kind: PermissionsStructured, modules: modules}
}

// Kind returns the active representation.
func (p Permissions) Kind() PermissionsKind { return p.kind }

// HasID reports whether the legacy ID set contains id. Always false for other kinds.
func (p Permissions) HasID(id string) bool {
	if p.kind != PermissionsLegacy {
		return false
	}
	_, ok := p.idSet[id]
	return ok
}

// IDs returns a copy of the legacy ID list.
func (p Permissions) IDs() []string {
	return append([]string(nil), p.ids...)
}

// Module returns the structured grant for module, if present.
func (p Permissions) Module(module string) (ModuleGrant, bool) {
	if p.kind != PermissionsStructured {
		return ModuleGrant{}, false
	}
	g, ok := p.modules[module]
	return g, ok
}

// Page returns the structured access flags for (module, page), if present.
func (p Permissions) Page(module, page string) (AccessFlags, bool) {
	g, ok := p.Module(module)
	if !ok {
		return AccessFlags{}, false
	}
	f, ok := g.Pages[page]
	return f, ok
}

type structuredWire struct {
	Modules map[string]struct {
		Pages map[string]*AccessFlags `json:"pages"`
	} `json:"modules"`
}

// UnmarshalJSON dispatches on the JSON value type.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Permissions{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("permissions: legacy list: %w", err)
		}
		*p = LegacyPermissions(ids...)
		return nil
	case '{':
		var w structuredWire
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return fmt.Errorf("permissions: structured: %w", err)
		}
		modules := make(map[string]ModuleGrant, len(w.Modules))
		for name, m := range w.Modules {
			pages := make(map[string]AccessFlags, len(m.Pages))
			for page, flags := range m.Pages {
				// a null page entry is falsy in the UI and grants nothing
				if flags == nil {
					continue
				}
				pages[page] = *flags
			}
			modules[name] = ModuleGrant{Pages: pages}
		}
		*p = StructuredPermissions(modules)
		return nil
	default:
		return fmt.Errorf("permissions: unsupported JSON value %q", trimmed[0])
	}
}

// MarshalJSON writes the representation back in the form it was received.
func (p Permissions) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case PermissionsLegacy:
		ids := p.ids
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	case PermissionsStructured:
		return json.Marshal(struct {
			Modules map[string]ModuleGrant `json:"modules"`
		}{Modules: p.modules})
	default:
		return []byte("null"), nil
	}
}
