package types

import (
	"fmt"
	"strings"

	"myst/internal/ast"
)

// Tag is a coarse kind: just enough type information to pick a storage
// class, a return-pop convention and direct vs. indirect call dispatch.
type Tag int

const (
	Undefined Tag = iota
	Number
	String
	Struct
	Callback
	Null
)

var tagNames = [...]string{
	Undefined: "undefined",
	Number:    "number",
	String:    "string",
	Struct:    "struct",
	Callback:  "callback",
	Null:      "null",
}

func (t Tag) String() string {
	if t >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Kind is a Tag plus, for callbacks, the callback's own result tag
// ("callback:number"). Result is Undefined for a plain callback.
type Kind struct {
	Tag    Tag
	Result Tag
}

var (
	KindUndefined = Kind{Tag: Undefined}
	KindNumber    = Kind{Tag: Number}
	KindString    = Kind{Tag: String}
	KindStruct    = Kind{Tag: Struct}
	KindCallback  = Kind{Tag: Callback}
	KindNull      = Kind{Tag: Null}
)

func (k Kind) String() string {
	if k.Tag == Callback && k.Result != Undefined {
		return "callback:" + k.Result.String()
	}
	return k.Tag.String()
}

// IsCallback reports whether calls through a name of this kind go through
// the function pointer it holds.
func (k Kind) IsCallback() bool { return k.Tag == Callback }

// IsStructLike reports whether values of this kind travel through the
// struct scratch slot. Strings share the struct representation.
func (k Kind) IsStructLike() bool { return k.Tag == String || k.Tag == Struct }

// ReturnKind is the kind a call through a name of kind k produces: the
// recorded kind itself, or the declared result of a nested callback.
func (k Kind) ReturnKind() Kind {
	if k.Tag == Callback && k.Result != Undefined {
		return Kind{Tag: k.Result}
	}
	return k
}

// ParseKind reads the textual form used by prelude manifests and the
// compiled-unit export table.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "callback:"); ok {
		res, err := parseTag(rest)
		if err != nil {
			return KindUndefined, err
		}
		if res == Callback || res == Undefined {
			return KindUndefined, fmt.Errorf("invalid callback result kind %q", rest)
		}
		return Kind{Tag: Callback, Result: res}, nil
	}
	tag, err := parseTag(s)
	if err != nil {
		return KindUndefined, err
	}
	return Kind{Tag: tag}, nil
}

func parseTag(s string) (Tag, error) {
	switch s {
	case "number":
		return Number, nil
	case "string":
		return String, nil
	case "struct":
		return Struct, nil
	case "callback", "func":
		return Callback, nil
	case "null":
		return Null, nil
	case "undefined", "":
		return Undefined, nil
	}
	return Undefined, fmt.Errorf("unknown kind %q", s)
}

// FromTypeNode maps a source annotation to a Kind. A missing annotation is
// Undefined; func<T> becomes a callback whose result is T.
func FromTypeNode(t ast.TypeNode) Kind {
	switch t := t.(type) {
	case nil:
		return KindUndefined
	case *ast.SimpleType:
		tag, err := parseTag(t.Name)
		if err != nil {
			return KindUndefined
		}
		return Kind{Tag: tag}
	case *ast.FuncType:
		if t.Result == nil {
			return KindCallback
		}
		return Kind{Tag: Callback, Result: FromTypeNode(t.Result).Tag}
	}
	return KindUndefined
}
