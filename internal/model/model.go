// Package model defines core data structures for defsindex.
package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind is the syntactic kind of a documented Go declaration.
type Kind string

const (
	KindType   Kind = "type"
	KindMethod Kind = "method"
	KindFunc   Kind = "func"
)

// TypeForm refines KindType for struct and interface declarations.
type TypeForm string

const (
	FormNone      TypeForm = ""
	FormStruct    TypeForm = "struct"
	FormInterface TypeForm = "interface"
)

// Status is the reconciliation outcome for one index entry.
type Status string

const (
	StatusNone       Status = ""
	StatusPresent    Status = "present"
	StatusAdded      Status = "added"
	StatusMoved      Status = "moved"
	StatusRemoved    Status = "removed"
	StatusOrphaned   Status = "orphaned"
	StatusReordered  Status = "reordered"
	StatusUnresolved Status = "unresolved"
)

// Definition is one documented declaration found in a spec file.
type Definition struct {
	Name         string // normalized; methods are Receiver.Method
	RawName      string
	Kind         Kind
	Form         TypeForm
	ReceiverType string
	Signature    string
	Generic      bool // declares or receives type parameters

	File         string // slash path relative to the specs dir
	Line         int
	BlockLine    int // line of the opening fence
	BlockContent string

	Heading            string
	HeadingLevel       int
	HeadingLine        int
	ParentHeading      string
	ParentHeadingLevel int
	SectionText        string
	DocComment         string

	InputTypes        []string
	OutputTypes       []string
	ReferencedTypes   []string
	ReferencedMethods []string

	CanonicalFile    string
	CanonicalHeading string
	CanonicalAnchor  string // with leading '#'

	CurrentSection string
	Confidence     float64
	Reasons        []string
}

// DisplayKind returns the type form when known, otherwise the kind.
func (d *Definition) DisplayKind() string {
	if d.Kind == KindType && d.Form != FormNone {
		return string(d.Form)
	}
	return string(d.Kind)
}

// Location renders file#anchor:line for messages.
func (d *Definition) Location() string {
	return fmt.Sprintf("%s%s:%d", d.File, d.CanonicalAnchor, d.Line)
}

// Entry converts the definition into an expected index entry.
func (d *Definition) Entry() *IndexEntry {
	text := d.CanonicalHeading
	if text == "" {
		text = d.Heading
	}
	if text == "" {
		text = d.RawName
	}
	return &IndexEntry{
		Name:       d.Name,
		RawName:    d.Name,
		Kind:       d.Kind,
		LinkText:   text,
		LinkFile:   d.CanonicalFile,
		LinkAnchor: strings.TrimPrefix(d.CanonicalAnchor, "#"),
		DocComment: d.DocComment,
		SourceFile: d.File,
		SourceLine: d.Line,
		Confidence: d.Confidence,
		Reasons:    d.Reasons,
	}
}

// IndexEntry is one bullet line under an index section.
type IndexEntry struct {
	Name       string
	RawName    string
	Kind       Kind
	LinkText   string
	LinkFile   string
	LinkAnchor string // without leading '#'
	Line       int

	Description      string
	DescriptionLines []string
	// DescriptionLayout is the description as written in the index: bullet
	// lines and indented continuation lines, rendered back verbatim.
	DescriptionLayout []string
	HasDescription    bool

	Status             Status
	NeedsLinkUpdate    bool
	ExpectedLinkFile   string
	ExpectedLinkAnchor string
	SuggestedSection   string

	DocComment string
	SourceFile string
	SourceLine int
	Confidence float64
	Reasons    []string
}

// LinkTarget returns file#anchor, or just file when there is no anchor.
func (e *IndexEntry) LinkTarget() string {
	if e.LinkAnchor == "" {
		return e.LinkFile
	}
	return e.LinkFile + "#" + e.LinkAnchor
}

// ExpectedTarget is LinkTarget for the corrected link.
func (e *IndexEntry) ExpectedTarget() string {
	if e.ExpectedLinkAnchor == "" {
		return e.ExpectedLinkFile
	}
	return e.ExpectedLinkFile + "#" + e.ExpectedLinkAnchor
}

// SortKey orders entries by method name for Receiver.Method entries.
func (e *IndexEntry) SortKey() string {
	if _, after, ok := strings.Cut(e.Name, "."); ok {
		return strings.ToLower(after)
	}
	return strings.ToLower(e.Name)
}

// EntryLess is the canonical entry order: sort key, then uppercase before
// lowercase, then the full name.
func EntryLess(a, b *IndexEntry) bool {
	ka, kb := a.SortKey(), b.SortKey()
	if ka != kb {
		return ka < kb
	}
	ua, ub := startsUpper(a.Name), startsUpper(b.Name)
	if ua != ub {
		return ua
	}
	return a.Name < b.Name
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// EntrySet is an insertion-ordered set of entries keyed by name.
type EntrySet struct {
	order  []string
	byName map[string]*IndexEntry
}

// Put adds or replaces an entry.
func (s *EntrySet) Put(e *IndexEntry) {
	if s.byName == nil {
		s.byName = make(map[string]*IndexEntry)
	}
	if _, ok := s.byName[e.Name]; !ok {
		s.order = append(s.order, e.Name)
	}
	s.byName[e.Name] = e
}

// Get returns the entry for name, or nil.
func (s *EntrySet) Get(name string) *IndexEntry {
	return s.byName[name]
}

// Has reports whether name is in the set.
func (s *EntrySet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Delete removes name and returns the removed entry, if any.
func (s *EntrySet) Delete(name string) *IndexEntry {
	e, ok := s.byName[name]
	if !ok {
		return nil
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e
}

// Len returns the number of entries.
func (s *EntrySet) Len() int {
	return len(s.order)
}

// All returns entries in insertion order.
func (s *EntrySet) All() []*IndexEntry {
	out := make([]*IndexEntry, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

// Sort reorders the set with EntryLess.
func (s *EntrySet) Sort() {
	sort.SliceStable(s.order, func(i, j int) bool {
		return EntryLess(s.byName[s.order[i]], s.byName[s.order[j]])
	})
}

// Clear drops all entries.
func (s *EntrySet) Clear() {
	s.order = nil
	s.byName = nil
}

// IndexSection is one numbered heading in the index.
type IndexSection struct {
	Number   string
	Level    int
	Text     string
	Kind     Kind
	Line     int
	Parent   *IndexSection
	Children []*IndexSection

	Entries  []*IndexEntry // current entries in document order
	Current  EntrySet
	Expected EntrySet

	ValidTypes map[string]struct{}
}

// HeadingLabel is "N. Text" for level 2 and "N Text" below.
func (s *IndexSection) HeadingLabel() string {
	if s.Level == 2 {
		return s.Number + ". " + s.Text
	}
	return s.Number + " " + s.Text
}

// Path joins the heading labels from the root section down to s.
func (s *IndexSection) Path() string {
	var parts []string
	for cur := s; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.HeadingLabel())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

var sectionNumberRe = regexp.MustCompile(`^\d+(?:\.\d+)*$`)

// Validate checks the structural invariants of a section.
func (s *IndexSection) Validate() error {
	if !sectionNumberRe.MatchString(s.Number) {
		return fmt.Errorf("section %q: invalid number %q", s.Text, s.Number)
	}
	if s.Level < 2 || s.Level > 4 {
		return fmt.Errorf("section %q: heading level %d outside 2-4", s.Text, s.Level)
	}
	if s.Level == 2 && s.Parent != nil {
		return fmt.Errorf("section %q: level 2 heading cannot have a parent", s.Text)
	}
	if s.Level > 2 {
		if s.Parent == nil {
			return fmt.Errorf("section %q: level %d heading has no parent", s.Text, s.Level)
		}
		if s.Parent.Level >= s.Level {
			return fmt.Errorf("section %q: parent level %d is not above %d", s.Text, s.Parent.Level, s.Level)
		}
	}
	return nil
}

// AddValidType registers a normalized type name on the section.
func (s *IndexSection) AddValidType(name string) {
	if s.ValidTypes == nil {
		s.ValidTypes = make(map[string]struct{})
	}
	s.ValidTypes[name] = struct{}{}
}

// HasValidType reports whether name is registered.
func (s *IndexSection) HasValidType(name string) bool {
	_, ok := s.ValidTypes[name]
	return ok
}

// ProseSection is an overview heading with its raw body lines.
type ProseSection struct {
	Level int
	Title string // heading text without the leading #'s
	Lines []string
}

// Unsorted bucket section paths.
const (
	UnsortedTypes     = "0. Unsorted Types"
	UnsortedMethods   = "0. Unsorted Methods"
	UnsortedFunctions = "0. Unsorted Functions"
)

// ParsedIndex is the whole index document.
type ParsedIndex struct {
	Title    string
	Overview []ProseSection
	Sections map[string]*IndexSection
	Order    []string
	Unsorted map[Kind]*IndexSection
}

// NewParsedIndex returns an empty index with its unsorted buckets.
func NewParsedIndex() *ParsedIndex {
	pi := &ParsedIndex{
		Sections: make(map[string]*IndexSection),
		Unsorted: make(map[Kind]*IndexSection),
	}
	for kind, text := range map[Kind]string{
		KindType:   "Unsorted Types",
		KindMethod: "Unsorted Methods",
		KindFunc:   "Unsorted Functions",
	} {
		sec := &IndexSection{Number: "0", Level: 2, Text: text, Kind: kind}
		pi.Unsorted[kind] = sec
		pi.Sections[sec.Path()] = sec
	}
	return pi
}

// OrderedSections returns real sections in document order.
func (pi *ParsedIndex) OrderedSections() []*IndexSection {
	out := make([]*IndexSection, 0, len(pi.Order))
	for _, p := range pi.Order {
		out = append(out, pi.Sections[p])
	}
	return out
}

// UnsortedSections returns the buckets in type, method, func order.
func (pi *ParsedIndex) UnsortedSections() []*IndexSection {
	return []*IndexSection{pi.Unsorted[KindType], pi.Unsorted[KindMethod], pi.Unsorted[KindFunc]}
}

// AllSections returns real sections followed by the unsorted buckets.
func (pi *ParsedIndex) AllSections() []*IndexSection {
	return append(pi.OrderedSections(), pi.UnsortedSections()...)
}

// IsUnsorted reports whether sec is one of the synthetic buckets.
func (pi *ParsedIndex) IsUnsorted(sec *IndexSection) bool {
	return sec != nil && sec.Number == "0" && pi.Unsorted[sec.Kind] == sec
}

// SectionsOfKind returns real sections with the given kind, in order.
func (pi *ParsedIndex) SectionsOfKind(kind Kind) []*IndexSection {
	var out []*IndexSection
	for _, sec := range pi.OrderedSections() {
		if sec.Kind == kind {
			out = append(out, sec)
		}
	}
	return out
}

// FindSectionByCurrent returns the first section whose current entries
// contain name.
func (pi *ParsedIndex) FindSectionByCurrent(name string) *IndexSection {
	for _, sec := range pi.AllSections() {
		if sec.Current.Has(name) {
			return sec
		}
	}
	return nil
}

// FindSectionByExpected returns the first section whose expected entries
// contain name.
func (pi *ParsedIndex) FindSectionByExpected(name string) *IndexSection {
	for _, sec := range pi.AllSections() {
		if sec.Expected.Has(name) {
			return sec
		}
	}
	return nil
}

// ResetExpected clears every expected entry and valid-type set.
func (pi *ParsedIndex) ResetExpected() {
	for _, sec := range pi.AllSections() {
		sec.Expected.Clear()
		sec.ValidTypes = nil
	}
}

// DeriveHeadingKind infers the section kind from its wording.
func DeriveHeadingKind(text string) Kind {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		switch w {
		case "types":
			return KindType
		case "functions":
			return KindFunc
		}
	}
	return KindMethod
}

// NormalizeGenericName strips bracketed type parameter groups, including
// nested ones: Pool[T] -> Pool, Map[K, List[V]] -> Map.
func NormalizeGenericName(name string) string {
	if !strings.Contains(name, "[") {
		return name
	}
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
