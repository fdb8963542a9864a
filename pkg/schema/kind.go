package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Tag names a field kind. Tags form an "is-a" hierarchy rooted at
// TagParameter; see KindTable.
type Tag string

// Built-in kind tags.
const (
	TagParameter    Tag = "parameter"
	TagBoolean      Tag = "boolean"
	TagNumber       Tag = "number"
	TagInteger      Tag = "integer"
	TagDate         Tag = "date"
	TagString       Tag = "string"
	TagColor        Tag = "color"
	TagDict         Tag = "dict"
	TagList         Tag = "list"
	TagTuple        Tag = "tuple"
	TagRange        Tag = "range"
	TagSelector     Tag = "selector"
	TagListSelector Tag = "list-selector"
	TagFileSelector Tag = "file-selector"
	TagAction       Tag = "action"
	TagView         Tag = "view"
	TagHTMLView     Tag = "html-view"
	TagImageView    Tag = "image-view"
)

var (
	// ErrUnknownKind is returned when a tag has not been defined in the table.
	ErrUnknownKind = errors.New("schema: unknown kind")
	// ErrKindCycle is returned when a definition would make a tag its own ancestor.
	ErrKindCycle = errors.New("schema: kind hierarchy cycle")
)

// Kind identifies the declared type of a field. A Kind may be wrapped by
// Constant, which marks the field read-only without losing the inner kind.
type Kind struct {
	tag      Tag
	constant bool
}

// Of returns the Kind for tag.
func Of(tag Tag) Kind {
	return Kind{tag: Tag(strings.TrimSpace(string(tag)))}
}

// Built-in kinds.
var (
	Parameter    = Of(TagParameter)
	Boolean      = Of(TagBoolean)
	Number       = Of(TagNumber)
	Integer      = Of(TagInteger)
	Date         = Of(TagDate)
	String       = Of(TagString)
	Color        = Of(TagColor)
	Dict         = Of(TagDict)
	List         = Of(TagList)
	Tuple        = Of(TagTuple)
	Range        = Of(TagRange)
	Selector     = Of(TagSelector)
	ListSelector = Of(TagListSelector)
	FileSelector = Of(TagFileSelector)
	Action       = Of(TagAction)
	View         = Of(TagView)
	HTMLView     = Of(TagHTMLView)
	ImageView    = Of(TagImageView)
)

// Constant wraps inner so the field renders as a read-only display.
func Constant(inner Kind) Kind {
	inner.constant = true
	return inner
}

// Tag reports the kind tag. The zero Kind is a generic parameter.
func (k Kind) Tag() Tag {
	if k.tag == "" {
		return TagParameter
	}
	return k.tag
}

// IsConstant reports whether the kind was wrapped by Constant.
func (k Kind) IsConstant() bool {
	return k.constant
}

// Unwrap strips the Constant wrapper.
func (k Kind) Unwrap() Kind {
	k.constant = false
	return k
}

func (k Kind) String() string {
	if k.constant {
		return "constant(" + string(k.Tag()) + ")"
	}
	return string(k.Tag())
}

// KindTable records the "is-a" relation between kind tags. Lookups walk from
// the most specific tag up to TagParameter. Callers may define new sub-kinds at
// any time.
type KindTable struct {
	mu      sync.RWMutex
	parents map[Tag]Tag
}

// NewKindTable returns a table holding the built-in hierarchy.
func NewKindTable() *KindTable {
	t := &KindTable{parents: make(map[Tag]Tag, len(builtinParents)+1)}
	t.parents[TagParameter] = ""
	for tag, parent := range builtinParents {
		t.parents[tag] = parent
	}
	return t
}

var builtinParents = map[Tag]Tag{
	TagBoolean:      TagParameter,
	TagNumber:       TagParameter,
	TagInteger:      TagNumber,
	TagDate:         TagNumber,
	TagString:       TagParameter,
	TagColor:        TagString,
	TagDict:         TagParameter,
	TagList:         TagParameter,
	TagTuple:        TagParameter,
	TagRange:        TagTuple,
	TagSelector:     TagParameter,
	TagListSelector: TagSelector,
	TagFileSelector: TagSelector,
	TagAction:       TagParameter,
	TagView:         TagParameter,
	TagHTMLView:     TagView,
	TagImageView:    TagView,
}

var (
	defaultKindsOnce sync.Once
	defaultKinds     *KindTable
)

// DefaultKinds returns the process-wide table used by schemas that were not
// given one explicitly.
func DefaultKinds() *KindTable {
	defaultKindsOnce.Do(func() {
		defaultKinds = NewKindTable()
	})
	return defaultKinds
}

// Define registers tag as a direct sub-kind of parent. Redefining an existing
// tag moves it under the new parent.
func (t *KindTable) Define(tag, parent Tag) error {
	if t == nil {
		return errors.New("schema: kind table is nil")
	}
	tag = Tag(strings.TrimSpace(string(tag)))
	if tag == "" {
		return errors.New("schema: kind tag is required")
	}
	if tag == TagParameter {
		return fmt.Errorf("schema: cannot redefine %q", TagParameter)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.parents[parent]; !ok {
		return fmt.Errorf("%w: parent %q", ErrUnknownKind, parent)
	}
	for cursor := parent; cursor != ""; cursor = t.parents[cursor] {
		if cursor == tag {
			return fmt.Errorf("%w: %q is-a %q", ErrKindCycle, tag, parent)
		}
	}
	t.parents[tag] = parent
	return nil
}

// Known reports whether tag has been defined.
func (t *KindTable) Known(tag Tag) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.parents[tag]
	return ok
}

// Lineage returns tag followed by its ancestors, most specific first. Unknown
// tags yield a nil slice.
func (t *KindTable) Lineage(tag Tag) []Tag {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.parents[tag]; !ok {
		return nil
	}
	var out []Tag
	for cursor := tag; cursor != ""; cursor = t.parents[cursor] {
		out = append(out, cursor)
	}
	return out
}

// IsA reports whether tag equals ancestor or descends from it.
func (t *KindTable) IsA(tag, ancestor Tag) bool {
	for _, entry := range t.Lineage(tag) {
		if entry == ancestor {
			return true
		}
	}
	return false
}
