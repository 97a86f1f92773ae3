package inspector

import "encoding/json"

// Type is the primary tag of a remote value. The set is closed.
type Type string

const (
	TypeString    Type = "string"
	TypeNumber    Type = "number"
	TypeBigint    Type = "bigint"
	TypeBoolean   Type = "boolean"
	TypeSymbol    Type = "symbol"
	TypeUndefined Type = "undefined"
	TypeObject    Type = "object"
	TypeFunction  Type = "function"
)

// Subtype further narrows object and function values. The set is closed;
// SubtypeIterator is documented by the protocol but unreachable from
// evaluation results, so observing it is a consistency error.
type Subtype string

const (
	SubtypeArray    Subtype = "array"
	SubtypeMap      Subtype = "map"
	SubtypeSet      Subtype = "set"
	SubtypeWeakmap  Subtype = "weakmap"
	SubtypeWeakset  Subtype = "weakset"
	SubtypeError    Subtype = "error"
	SubtypeNull     Subtype = "null"
	SubtypeDate     Subtype = "date"
	SubtypeRegexp   Subtype = "regexp"
	SubtypeClass    Subtype = "class"
	SubtypeProxy    Subtype = "proxy"
	SubtypeWeakref  Subtype = "weakref"
	SubtypeIterator Subtype = "iterator"
)

// RemoteValue describes a value living in the remote execution context. The
// value itself never crosses the wire for non-primitives; ObjectID is the
// handle used to address it remotely.
//
// WasThrown is attached from the enclosing evaluate reply and
// WasRejectedPromise is derived afterwards; neither is part of the wire
// shape of the value itself.
type RemoteValue struct {
	Type        Type            `json:"type"`
	Subtype     Subtype         `json:"subtype,omitempty"`
	ClassName   string          `json:"className,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
	ObjectID    string          `json:"objectId,omitempty"`
	Size        int             `json:"size,omitempty"`
	Preview     *ObjectPreview  `json:"preview,omitempty"`

	WasThrown          bool `json:"-"`
	WasRejectedPromise bool `json:"-"`
}

// ObjectPreview is a partial, protocol-supplied summary of an object's
// properties, used without fetching the full object.
type ObjectPreview struct {
	Type        Type              `json:"type"`
	Subtype     Subtype           `json:"subtype,omitempty"`
	Description string            `json:"description,omitempty"`
	Overflow    bool              `json:"overflow,omitempty"`
	Properties  []PropertyPreview `json:"properties"`
}

// PropertyPreview is one named property inside an ObjectPreview.
type PropertyPreview struct {
	Name    string  `json:"name"`
	Type    Type    `json:"type"`
	Value   string  `json:"value,omitempty"`
	Subtype Subtype `json:"subtype,omitempty"`
}

// Is reports whether the value carries the given primary tag. Together with
// IsSubtype it is the only way the rest of the system branches on remote
// value shape.
func (v *RemoteValue) Is(t Type) bool {
	return v != nil && v.Type == t
}

// IsSubtype reports whether the value carries the given subtype tag.
func (v *RemoteValue) IsSubtype(s Subtype) bool {
	return v != nil && v.Subtype == s
}

// PromiseClassName is the class name the remote engine reports for
// promise-like (deferred) values.
const PromiseClassName = "Promise"

// IsPromise reports whether the value is a deferred (promise-like) object.
func (v *RemoteValue) IsPromise() bool {
	return v.Is(TypeObject) && v.ClassName == PromiseClassName
}
