// Package catalog loads the immutable question sets for Lite and Deep interviews.
// Content lives in a versioned data file; routing of every question id to its answer
// bucket is resolved once here, at load time.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fadilmartias/career-assessment/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.json
var embedded embed.FS

var ErrModuleNotFound = errors.New("module not found")

type QuestionType string

const (
	QuestionText        QuestionType = "text"
	QuestionScale       QuestionType = "scale"
	QuestionMultiSelect QuestionType = "multi_select"
	QuestionRanking     QuestionType = "ranking"
)

type Question struct {
	ID      string       `yaml:"id" json:"id"`
	Type    QuestionType `yaml:"type" json:"type"`
	Text    string       `yaml:"text" json:"text"`
	Options []string     `yaml:"options,omitempty" json:"options,omitempty"`
	Bucket  model.Bucket `yaml:"-" json:"bucket"`
	SetID   string       `yaml:"-" json:"-"`
}

type QuestionSet struct {
	ID               string     `yaml:"id" json:"id"`
	Title            string     `yaml:"title" json:"title"`
	Description      string     `yaml:"description,omitempty" json:"description,omitempty"`
	Recommended      bool       `yaml:"recommended,omitempty" json:"recommended,omitempty"`
	EstimatedMinutes int        `yaml:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	Questions        []Question `yaml:"questions" json:"questions"`
}

type ModuleMeta struct {
	ModuleID         string `json:"moduleId"`
	Title            string `json:"title"`
	QuestionCount    int    `json:"questionCount"`
	Recommended      bool   `json:"recommended"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

type document struct {
	Version string        `yaml:"version"`
	Lite    []QuestionSet `yaml:"lite"`
	Deep    []QuestionSet `yaml:"deep"`
}

type Catalog struct {
	version   string
	lite      []QuestionSet
	deep      []QuestionSet
	deepIndex map[string]int
	questions map[string]Question
}

// Default loads the catalog shipped with the binary.
func Default() (*Catalog, error) {
	raw, err := embedded.ReadFile("data/catalog.json")
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(raw))
}

// LoadFile loads a catalog from a JSON or YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a catalog document. JSON is accepted because it is valid YAML.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{
		version:   doc.Version,
		lite:      doc.Lite,
		deep:      doc.Deep,
		deepIndex: make(map[string]int, len(doc.Deep)),
		questions: map[string]Question{},
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	if len(c.lite) == 0 {
		return errors.New("catalog: no lite categories")
	}
	if len(c.deep) == 0 {
		return errors.New("catalog: no deep modules")
	}
	var problems []string
	add := func(set *QuestionSet, lite bool) {
		if strings.TrimSpace(set.ID) == "" {
			problems = append(problems, "question set with empty id")
		}
		if len(set.Questions) == 0 {
			problems = append(problems, fmt.Sprintf("set %q has no questions", set.ID))
		}
		for i := range set.Questions {
			q := &set.Questions[i]
			prefix := model.QuestionPrefix(q.ID)
			switch {
			case q.ID == "":
				problems = append(problems, fmt.Sprintf("set %q: question %d has empty id", set.ID, i))
				continue
			case !strings.Contains(q.ID, "_") || prefix == "":
				problems = append(problems, fmt.Sprintf("question %q: id must look like <prefix>_<name>", q.ID))
				continue
			}
			if _, dup := c.questions[q.ID]; dup {
				problems = append(problems, fmt.Sprintf("question %q is declared twice", q.ID))
				continue
			}
			switch q.Type {
			case QuestionText, QuestionScale, QuestionMultiSelect, QuestionRanking:
			default:
				problems = append(problems, fmt.Sprintf("question %q: unknown type %q", q.ID, q.Type))
			}
			q.Bucket = model.BucketForPrefix(prefix)
			q.SetID = set.ID
			if lite && q.Bucket == model.BucketSession {
				problems = append(problems, fmt.Sprintf("lite question %q does not route to a scored bucket", q.ID))
			}
			c.questions[q.ID] = *q
		}
	}
	for i := range c.lite {
		add(&c.lite[i], true)
	}
	for i := range c.deep {
		if _, dup := c.deepIndex[c.deep[i].ID]; dup {
			problems = append(problems, fmt.Sprintf("deep module %q is declared twice", c.deep[i].ID))
		}
		c.deepIndex[c.deep[i].ID] = i
		add(&c.deep[i], false)
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Catalog) Version() string { return c.version }

func (c *Catalog) ListLiteCategories() []QuestionSet {
	out := make([]QuestionSet, len(c.lite))
	copy(out, c.lite)
	return out
}

func (c *Catalog) LiteCategoryIDs() []string {
	ids := make([]string, len(c.lite))
	for i, s := range c.lite {
		ids[i] = s.ID
	}
	return ids
}

func (c *Catalog) DeepModule(id string) (QuestionSet, error) {
	i, ok := c.deepIndex[id]
	if !ok {
		return QuestionSet{}, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return c.deep[i], nil
}

func (c *Catalog) HasDeepModule(id string) bool {
	_, ok := c.deepIndex[id]
	return ok
}

func (c *Catalog) DeepModuleIDs() []string {
	ids := make([]string, len(c.deep))
	for i, s := range c.deep {
		ids[i] = s.ID
	}
	return ids
}

func (c *Catalog) ListDeepModuleMetadata() []ModuleMeta {
	out := make([]ModuleMeta, len(c.deep))
	for i, s := range c.deep {
		out[i] = ModuleMeta{
			ModuleID:         s.ID,
			Title:            s.Title,
			QuestionCount:    len(s.Questions),
			Recommended:      s.Recommended,
			EstimatedMinutes: s.EstimatedMinutes,
		}
	}
	return out
}

func (c *Catalog) Question(id string) (Question, bool) {
	q, ok := c.questions[id]
	return q, ok
}
