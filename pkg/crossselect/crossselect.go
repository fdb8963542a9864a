// Package crossselect implements the dual-list transfer control used for
// multi-choice fields with many options. Labels move between an available and
// a chosen partition; the control value is the chosen partition mapped back
// to the option values.
//
// Controls are not safe for concurrent use. They are driven from the single
// goroutine that dispatches UI events.
package crossselect

import (
	"regexp"
	"sort"

	"github.com/goliatone/go-paramform/pkg/schema"
)

// Placeholder is the single entry Displayed returns for an empty partition.
// It is display text only: an empty label is a legal option, so callers test
// Empty rather than comparing labels. It never appears in Value, Labels,
// Partition, Visible or Staged.
const Placeholder = ""

// Side selects one of the two partitions.
type Side int

const (
	// Available holds the labels not chosen.
	Available Side = iota
	// Chosen holds the selected labels.
	Chosen
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Available {
		return Chosen
	}
	return Available
}

func (s Side) String() string {
	if s == Chosen {
		return "chosen"
	}
	return "available"
}

// ChangeFunc receives the new value after a user transfer.
type ChangeFunc func(value []any)

// Option customises a Control.
type Option func(*Control)

// WithOnChange registers fn for transfers committed by the user.
func WithOnChange(fn ChangeFunc) Option {
	return func(c *Control) {
		c.onChange = fn
	}
}

// WithAutoStage makes a non-empty filter stage its matches.
func WithAutoStage() Option {
	return func(c *Control) {
		c.autoStage = true
	}
}

type filter struct {
	query   string
	pattern *regexp.Regexp
	invalid bool
}

func (f filter) active() bool {
	return f.query != ""
}

func (f filter) match(label string) bool {
	if !f.active() {
		return true
	}
	if f.invalid {
		return false
	}
	return f.pattern.MatchString(label)
}

// Control holds the state of one cross-select.
type Control struct {
	domain     []string
	values     map[string]any
	partitions [2][]string
	staged     [2][]string
	filters    [2]filter
	onChange   ChangeFunc
	autoStage  bool
}

// New returns a control over options with nothing chosen.
func New(options schema.Options, opts ...Option) *Control {
	c := &Control{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.SetOptions(options)
	return c
}

// SetOptions replaces the domain. The chosen partition is reset to empty and
// filters are kept.
func (c *Control) SetOptions(options schema.Options) {
	c.domain = c.domain[:0]
	c.values = make(map[string]any, len(options))
	for _, option := range options {
		if _, dup := c.values[option.Label]; dup {
			continue
		}
		c.values[option.Label] = option.Value
		c.domain = append(c.domain, option.Label)
	}
	c.partitions[Available] = append([]string(nil), c.domain...)
	c.partitions[Chosen] = nil
	c.clearStaged()
	c.restageFilters()
}

// SetValue makes labels the chosen partition. Unknown labels are ignored and
// staged selections are cleared.
func (c *Control) SetValue(labels []string) {
	want := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, ok := c.values[label]; ok {
			want[label] = struct{}{}
		}
	}
	var available, chosen []string
	for _, label := range c.domain {
		if _, ok := want[label]; ok {
			chosen = append(chosen, label)
		} else {
			available = append(available, label)
		}
	}
	c.partitions[Available] = available
	c.partitions[Chosen] = chosen
	c.clearStaged()
}

// SetValues is SetValue addressed by option values.
func (c *Control) SetValues(values []any) {
	labels := make([]string, 0, len(values))
	for _, value := range values {
		for _, label := range c.domain {
			if schema.Equal(c.values[label], value) {
				labels = append(labels, label)
				break
			}
		}
	}
	c.SetValue(labels)
}

// StageSelection marks labels on side for the next transfer, replacing the
// previous staged set. Only labels visible under the side's filter are kept.
func (c *Control) StageSelection(side Side, labels []string) {
	visible := make(map[string]struct{})
	for _, label := range c.Visible(side) {
		visible[label] = struct{}{}
	}
	seen := make(map[string]struct{}, len(labels))
	staged := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := visible[label]; !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		staged = append(staged, label)
	}
	c.staged[side] = staged
}

// CommitTransfer moves the staged labels of side to the other side. Both
// partitions are sorted afterwards and staged selections are cleared. An
// empty staged set changes nothing. It reports whether anything moved.
func (c *Control) CommitTransfer(side Side) bool {
	staged := c.staged[side]
	if len(staged) == 0 {
		return false
	}
	moving := make(map[string]struct{}, len(staged))
	for _, label := range staged {
		moving[label] = struct{}{}
	}
	var kept []string
	for _, label := range c.partitions[side] {
		if _, ok := moving[label]; !ok {
			kept = append(kept, label)
		}
	}
	other := side.Other()
	target := append([]string(nil), c.partitions[other]...)
	target = append(target, staged...)

	sort.Strings(kept)
	sort.Strings(target)
	c.partitions[side] = kept
	c.partitions[other] = target
	c.clearStaged()

	if c.onChange != nil {
		c.onChange(c.Value())
	}
	return true
}

// SetFilter sets the search pattern for side. An empty query shows the whole
// partition; a pattern that does not compile matches nothing.
func (c *Control) SetFilter(side Side, query string) {
	f := filter{query: query}
	if query != "" {
		pattern, err := regexp.Compile(query)
		if err != nil {
			f.invalid = true
		} else {
			f.pattern = pattern
		}
	}
	c.filters[side] = f
	c.staged[side] = nil
	if c.autoStage && f.active() {
		c.staged[side] = c.Visible(side)
	}
}

// Query returns the filter text of side.
func (c *Control) Query(side Side) string {
	return c.filters[side].query
}

// Value returns the option values of the chosen partition in order.
func (c *Control) Value() []any {
	chosen := c.partitions[Chosen]
	out := make([]any, 0, len(chosen))
	for _, label := range chosen {
		out = append(out, c.values[label])
	}
	return out
}

// Labels returns the chosen labels in order.
func (c *Control) Labels() []string {
	return c.Partition(Chosen)
}

// Domain returns every label in option order.
func (c *Control) Domain() []string {
	return append([]string(nil), c.domain...)
}

// Partition returns the labels on side in stored order.
func (c *Control) Partition(side Side) []string {
	return append([]string{}, c.partitions[side]...)
}

// Visible returns the labels on side that match its filter.
func (c *Control) Visible(side Side) []string {
	f := c.filters[side]
	out := make([]string, 0, len(c.partitions[side]))
	for _, label := range c.partitions[side] {
		if f.match(label) {
			out = append(out, label)
		}
	}
	return out
}

// Empty reports whether side holds no labels, in which case Displayed
// returns the placeholder alone.
func (c *Control) Empty(side Side) bool {
	return len(c.partitions[side]) == 0
}

// Displayed returns the list shown for side: filter matches first, then the
// rest, or the placeholder alone when the partition is empty.
func (c *Control) Displayed(side Side) []string {
	partition := c.partitions[side]
	if len(partition) == 0 {
		return []string{Placeholder}
	}
	f := c.filters[side]
	if !f.active() {
		return append([]string(nil), partition...)
	}
	matches := make([]string, 0, len(partition))
	var rest []string
	for _, label := range partition {
		if f.match(label) {
			matches = append(matches, label)
		} else {
			rest = append(rest, label)
		}
	}
	return append(matches, rest...)
}

// Staged returns the staged labels of side.
func (c *Control) Staged(side Side) []string {
	return append([]string{}, c.staged[side]...)
}

func (c *Control) clearStaged() {
	c.staged[Available] = nil
	c.staged[Chosen] = nil
}

func (c *Control) restageFilters() {
	if !c.autoStage {
		return
	}
	for _, side := range []Side{Available, Chosen} {
		if c.filters[side].active() {
			c.staged[side] = c.Visible(side)
		}
	}
}
