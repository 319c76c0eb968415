package discover

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/phobologic/defsindex/internal/markdown"
)

// Document is one cached specification file.
type Document struct {
	Name     string
	Content  string
	Lines    []string
	Headings []markdown.Heading
	Fences   []markdown.Fence
}

// Corpus is a lazily populated, concurrency-safe content cache keyed by
// file name relative to the specs directory.
type Corpus struct {
	Root string

	mu   sync.Mutex
	docs map[string]*Document
	errs map[string]error
}

// NewCorpus returns an empty cache rooted at root.
func NewCorpus(root string) *Corpus {
	return &Corpus{
		Root: root,
		docs: make(map[string]*Document),
		errs: make(map[string]error),
	}
}

// Get returns the parsed document for name, reading it on first use.
func (c *Corpus) Get(name string) (*Document, error) {
	c.mu.Lock()
	if doc, ok := c.docs[name]; ok {
		c.mu.Unlock()
		return doc, nil
	}
	if err, ok := c.errs[name]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(c.Root, name))
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[name] = err
		return nil, err
	}
	if doc, ok := c.docs[name]; ok {
		return doc, nil
	}
	content := string(data)
	lines := markdown.SplitLines(content)
	doc := &Document{
		Name:     name,
		Content:  content,
		Lines:    lines,
		Headings: markdown.Headings(lines),
		Fences:   markdown.ScanFences(lines),
	}
	c.docs[name] = doc
	return doc, nil
}

// Exists reports whether name is a regular file inside the corpus root.
func (c *Corpus) Exists(name string) bool {
	info, err := os.Stat(filepath.Join(c.Root, name))
	return err == nil && info.Mode().IsRegular()
}

// Invalidate drops cached content for name, or everything when name is "".
func (c *Corpus) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.docs = make(map[string]*Document)
		c.errs = make(map[string]error)
		return
	}
	delete(c.docs, name)
	delete(c.errs, name)
}
