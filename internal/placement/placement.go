// Package placement decides which index section every discovered
// definition belongs in and records it as an expected entry.
//
// Types are placed first, then methods under their receiver's type section,
// then functions near the types their signatures mention. A definition whose
// best score stays under the threshold is deferred to the unsorted bucket of
// its kind with its best guess attached.
package placement

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
	"github.com/phobologic/defsindex/internal/scoring"
)

// CategoryOverrideReason is appended when a method category names one of
// the candidate sections.
const CategoryOverrideReason = "Category match: structure-first placement (placement override)"

// Result summarizes one placement run.
type Result struct {
	Placed   int
	Deferred int
	// Trace holds one "Name -> section: NN% (reasons)" line per definition.
	Trace  []string
	Issues issue.List
}

// Placer runs placement with one scoring engine.
type Placer struct {
	engine    *scoring.Engine
	logger    *slog.Logger
	threshold float64
}

// New returns a Placer. A nil engine selects the default engine and a nil
// logger selects slog.Default().
func New(engine *scoring.Engine, logger *slog.Logger) *Placer {
	if engine == nil {
		engine = scoring.NewEngine(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	threshold := engine.Threshold
	if threshold <= 0 {
		threshold = scoring.DefaultThreshold
	}
	return &Placer{engine: engine, logger: logger, threshold: threshold}
}

// run is the state of one Place call.
type run struct {
	*Placer
	pi       *model.ParsedIndex
	secs     *scoring.Sections
	types    []*model.IndexSection
	methods  []*model.IndexSection
	funcs    []*model.IndexSection
	byName   map[string]*model.Definition
	deferred map[string]struct{} // type names waiting in the unsorted bucket
	result   *Result
}

// Place fills the expected entries of pi from defs. Previous expected
// entries are discarded.
func (p *Placer) Place(defs []*model.Definition, pi *model.ParsedIndex) *Result {
	pi.ResetExpected()

	ordered := append([]*model.Definition(nil), defs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ki, kj := kindOrder(ordered[i].Kind), kindOrder(ordered[j].Kind)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(ordered[i].Name) < strings.ToLower(ordered[j].Name)
	})

	r := &run{
		Placer:   p,
		pi:       pi,
		types:    pi.SectionsOfKind(model.KindType),
		methods:  pi.SectionsOfKind(model.KindMethod),
		funcs:    pi.SectionsOfKind(model.KindFunc),
		byName:   make(map[string]*model.Definition, len(ordered)),
		deferred: make(map[string]struct{}),
		result:   &Result{},
	}
	for _, d := range ordered {
		d.Confidence, d.Reasons = 0, nil
		if cur := pi.FindSectionByCurrent(d.Name); cur != nil {
			d.CurrentSection = cur.Path()
		} else {
			d.CurrentSection = ""
		}
		r.byName[d.Name] = d
	}
	r.secs = populateValidTypes(pi)

	for _, d := range ordered {
		if d.Kind == model.KindType {
			r.placeType(d)
		}
	}
	for _, d := range ordered {
		if d.Kind == model.KindMethod {
			r.placeMethod(d)
		}
	}
	r.propagate()
	for _, d := range ordered {
		if d.Kind == model.KindFunc {
			r.placeFunc(d)
		}
	}
	r.trace(ordered)

	p.logger.Debug("placement complete", "placed", r.result.Placed, "deferred", r.result.Deferred)
	return r.result
}

func kindOrder(k model.Kind) int {
	switch k {
	case model.KindMethod:
		return 1
	case model.KindFunc:
		return 2
	}
	return 0
}

// populateValidTypes registers on every type section the types it already
// lists, and copies them onto method and function sections directly under
// a type section.
func populateValidTypes(pi *model.ParsedIndex) *scoring.Sections {
	secs := &scoring.Sections{
		Paths:      append([]string(nil), pi.Order...),
		ValidTypes: make(map[string]map[string]struct{}),
	}
	all := pi.AllSections()
	for _, sec := range all {
		sec.ValidTypes = make(map[string]struct{})
		if sec.Kind != model.KindType {
			continue
		}
		for _, e := range sec.Entries {
			if !strings.Contains(e.Name, ".") {
				sec.AddValidType(strings.ToLower(model.NormalizeGenericName(e.Name)))
			}
		}
	}
	for _, sec := range all {
		if sec.Kind == model.KindType || sec.Parent == nil || sec.Parent.Kind != model.KindType {
			continue
		}
		for t := range sec.Parent.ValidTypes {
			sec.AddValidType(t)
		}
	}
	for _, sec := range all {
		secs.ValidTypes[sec.Path()] = sec.ValidTypes
	}
	return secs
}

// best scores def against candidates and returns the first section with
// the strictly highest positive score.
func (r *run) best(def *model.Definition, candidates []*model.IndexSection) (*model.IndexSection, float64, []string) {
	var (
		bestSec     *model.IndexSection
		bestScore   float64
		bestReasons []string
	)
	for _, sec := range candidates {
		score, reasons := r.engine.Score(def, sec.Path(), r.secs)
		if score > bestScore {
			bestSec, bestScore, bestReasons = sec, score, reasons
		}
	}
	return bestSec, bestScore, bestReasons
}

func (r *run) assign(def *model.Definition, sec *model.IndexSection) {
	entry := def.Entry()
	entry.SuggestedSection = sec.Path()
	sec.Expected.Put(entry)
	r.result.Placed++
}

func (r *run) deferTo(def *model.Definition, suggested *model.IndexSection) *model.IndexEntry {
	bucket := r.pi.Unsorted[def.Kind]
	entry := def.Entry()
	entry.Status = model.StatusUnresolved
	if suggested != nil {
		entry.SuggestedSection = suggested.Path()
	}
	bucket.Expected.Put(entry)
	r.result.Deferred++
	return entry
}

func (r *run) record(def *model.Definition, score float64, reasons []string) {
	def.Confidence = score
	def.Reasons = reasons
}

func (r *run) placeType(def *model.Definition) {
	sec, score, reasons := r.best(def, r.types)
	r.record(def, score, reasons)
	if sec != nil && score >= r.threshold {
		r.assign(def, sec)
		return
	}
	entry := r.deferTo(def, sec)
	r.deferred[entry.Name] = struct{}{}
}

func (r *run) normalizeReceiver(receiver string) string {
	if receiver == "" {
		return ""
	}
	return model.NormalizeGenericName(r.engine.Tables.MapImplementation(receiver))
}

func (r *run) sectionByReceiver(receiver string) *model.IndexSection {
	for _, sec := range r.types {
		if sec.Expected.Has(receiver) {
			return sec
		}
	}
	return nil
}

func (r *run) placeMethod(def *model.Definition) {
	if def.ReceiverType == "" {
		r.deferTo(def, nil)
		return
	}
	receiver := r.normalizeReceiver(def.ReceiverType)
	typeSec := r.sectionByReceiver(receiver)
	if typeSec == nil {
		r.placeOrphanMethod(def, receiver)
		return
	}

	var candidates []*model.IndexSection
	for _, child := range typeSec.Children {
		if child.Kind == model.KindMethod {
			candidates = append(candidates, child)
		}
		for _, grandchild := range child.Children {
			if grandchild.Kind == model.KindMethod {
				candidates = append(candidates, grandchild)
			}
		}
	}
	if len(candidates) == 0 {
		r.deferTo(def, nil)
		return
	}

	sec, score, reasons := r.best(def, candidates)
	if cat := categorySection(def, receiver, candidates); cat != nil {
		r.record(def, score, append(append([]string(nil), reasons...), CategoryOverrideReason))
		r.assign(def, cat)
		return
	}
	r.record(def, score, reasons)
	if sec != nil && score >= r.threshold {
		r.assign(def, sec)
		return
	}
	r.deferTo(def, sec)
}

// placeOrphanMethod handles a method whose receiver has no type section
// yet. When the receiver itself was deferred and the method already sits
// in a method section that still scores at or above the threshold, it stays
// there so propagation can pull the receiver in above it.
func (r *run) placeOrphanMethod(def *model.Definition, receiver string) {
	if _, ok := r.deferred[receiver]; !ok {
		r.deferTo(def, nil)
		return
	}
	cur := r.pi.FindSectionByCurrent(def.Name)
	if cur == nil || cur.Kind != model.KindMethod || r.pi.IsUnsorted(cur) {
		r.deferTo(def, nil)
		return
	}
	score, reasons := r.engine.Score(def, cur.Path(), r.secs)
	r.record(def, score, reasons)
	if score >= r.threshold {
		r.assign(def, cur)
		return
	}
	r.deferTo(def, cur)
}

// categorySection returns the candidate whose heading names the method's
// category, if any.
func categorySection(def *model.Definition, receiver string, candidates []*model.IndexSection) *model.IndexSection {
	category := scoring.Categorize(def, receiver)
	for _, sec := range candidates {
		if sec.Text == category {
			return sec
		}
	}
	if !scoring.HasCategoryRules(receiver) {
		for _, sec := range candidates {
			if strings.HasSuffix(sec.Text, "Other Type Methods") {
				return sec
			}
		}
	}
	if receiver == "Package" && scoring.IsSignatureMethod(def) {
		for _, sec := range candidates {
			if sec.Text == "Package Other Methods" {
				return sec
			}
		}
	}
	return nil
}

// propagate promotes deferred types into the type section above the
// methods that were placed for them, provided those methods are already
// listed somewhere in the index. It is a single pass.
func (r *run) propagate() {
	bucket := r.pi.Unsorted[model.KindType]
	for _, sec := range r.methods {
		parent := sec.Parent
		if parent == nil || parent.Kind != model.KindType {
			continue
		}
		for _, entry := range sec.Expected.All() {
			recv, _, ok := strings.Cut(entry.Name, ".")
			if !ok {
				continue
			}
			receiver := model.NormalizeGenericName(recv)
			if _, ok := r.deferred[receiver]; !ok {
				continue
			}
			if r.pi.FindSectionByCurrent(entry.Name) == nil {
				continue
			}
			if parent.Current.Has(receiver) || parent.Expected.Has(receiver) {
				continue
			}
			typeEntry := bucket.Expected.Delete(receiver)
			if typeEntry != nil {
				r.result.Deferred--
			} else {
				def, ok := r.byName[receiver]
				if !ok {
					continue
				}
				typeEntry = def.Entry()
			}
			typeEntry.Status = model.StatusNone
			typeEntry.SuggestedSection = parent.Path()
			parent.Expected.Put(typeEntry)
			r.result.Placed++
			delete(r.deferred, receiver)
			parent.AddValidType(strings.ToLower(receiver))
			r.logger.Debug("propagated deferred type", "type", receiver, "section", parent.Path())
		}
	}
}

// unrelatedFunctions never inherit a related type section.
func unrelatedFunction(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "fileentrytag") ||
		name == "NewPackageError" ||
		strings.Contains(lower, "packagewithoptions") ||
		lower == "readheaderfrompath" || lower == "setdestpath"
}

func (r *run) relatedSection(def *model.Definition) *model.IndexSection {
	if unrelatedFunction(def.Name) {
		return nil
	}
	for _, m := range def.ReferencedMethods {
		recv, _, _ := strings.Cut(m, ".")
		if sec := r.sectionByReceiver(r.normalizeReceiver(recv)); sec != nil {
			return sec
		}
	}
	for _, t := range def.ReferencedTypes {
		if sec := r.sectionByReceiver(r.normalizeReceiver(t)); sec != nil {
			return sec
		}
	}
	return nil
}

func (r *run) placeFunc(def *model.Definition) {
	candidates := r.funcs
	if related := r.relatedSection(def); related != nil {
		var children []*model.IndexSection
		for _, child := range related.Children {
			if child.Kind == model.KindFunc {
				children = append(children, child)
			}
		}
		if len(children) > 0 {
			candidates = children
		}
	}

	sec, score, reasons := r.best(def, candidates)
	if sec == nil {
		if cur := r.pi.FindSectionByCurrent(def.Name); cur != nil && cur.Kind == model.KindFunc && !r.pi.IsUnsorted(cur) {
			score, reasons = r.engine.Score(def, cur.Path(), r.secs)
			sec = cur
		}
	}
	r.record(def, score, reasons)
	if sec != nil && score >= r.threshold {
		r.assign(def, sec)
		return
	}
	r.deferTo(def, sec)
}

// trace renders the verbose placement lines and the low-confidence
// warnings.
func (r *run) trace(defs []*model.Definition) {
	for _, d := range defs {
		sec := r.pi.FindSectionByExpected(d.Name)
		if sec == nil {
			line := d.Name + " -> (no section): 0% (no valid matches)"
			r.result.Trace = append(r.result.Trace, line)
			r.logger.Debug(line)
			continue
		}
		entry := sec.Expected.Get(d.Name)
		target := entry.SuggestedSection
		if target == "" {
			target = d.CurrentSection
		}
		if target == "" {
			target = sec.Path()
		}
		pct := int(d.Confidence * 100)
		line := fmt.Sprintf("%s -> %s: %d%% (%s)", d.Name, target, pct, strings.Join(d.Reasons, ", "))
		r.result.Trace = append(r.result.Trace, line)
		r.logger.Debug(line)

		if d.Confidence < r.threshold {
			r.result.Issues.Add(issue.Warnf(issue.CodeLowConfidence, "Low-confidence placement",
				"Low-confidence placement: %s -> %s (%d%%)", d.Name, target, pct).
				At(d.File, d.Line).
				WithContext(issue.CtxName, d.Name).
				WithContext(issue.CtxSection, target))
		}
	}
}
