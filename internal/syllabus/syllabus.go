// Package syllabus holds the subject → topic → subtopic catalog that
// subtopic rotation draws from. The catalog is data, loaded from an
// embedded YAML file.
package syllabus

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed syllabus.yaml
var embedded []byte

// Topic is a named topic with its ordered list of subtopics.
type Topic struct {
	Name      string   `yaml:"name" json:"name"`
	Subtopics []string `yaml:"subtopics" json:"subtopics"`
}

// Subject groups topics.
type Subject struct {
	Name   string  `yaml:"name" json:"name"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

type document struct {
	Subjects []Subject `yaml:"subjects"`
}

// Catalog is an immutable, indexed syllabus.
type Catalog struct {
	subjects  []Subject
	bySubject map[string]*Subject
	byTopic   map[string]map[string]*Topic // subject key -> topic key -> topic
	anyTopic  map[string]*Topic            // topic key -> first topic with that name
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embedded)
})

// Default returns the catalog built from the embedded syllabus.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Parse decodes and validates a YAML syllabus document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode syllabus: %w", err)
	}
	return New(doc.Subjects)
}

// New validates subjects and builds a catalog from them.
func New(subjects []Subject) (*Catalog, error) {
	if err := validateSubjects(subjects); err != nil {
		return nil, err
	}

	c := &Catalog{
		subjects:  subjects,
		bySubject: make(map[string]*Subject, len(subjects)),
		byTopic:   make(map[string]map[string]*Topic, len(subjects)),
		anyTopic:  make(map[string]*Topic),
	}
	for i := range c.subjects {
		s := &c.subjects[i]
		sk := key(s.Name)
		c.bySubject[sk] = s
		c.byTopic[sk] = make(map[string]*Topic, len(s.Topics))
		for j := range s.Topics {
			t := &s.Topics[j]
			tk := key(t.Name)
			c.byTopic[sk][tk] = t
			if _, ok := c.anyTopic[tk]; !ok {
				c.anyTopic[tk] = t
			}
		}
	}
	return c, nil
}

// Subjects returns all subject names in catalog order.
func (c *Catalog) Subjects() []string {
	out := make([]string, 0, len(c.subjects))
	for _, s := range c.subjects {
		out = append(out, s.Name)
	}
	return out
}

// Topics returns the topics of a subject, or an error if the subject is
// unknown.
func (c *Catalog) Topics(subject string) ([]Topic, error) {
	s, ok := c.bySubject[key(subject)]
	if !ok {
		return nil, fmt.Errorf("subject not found: %q", subject)
	}
	out := make([]Topic, 0, len(s.Topics))
	for _, t := range s.Topics {
		out = append(out, Topic{Name: t.Name, Subtopics: slices.Clone(t.Subtopics)})
	}
	return out, nil
}

// Subtopics returns the ordered subtopics of a topic. When the subject is
// unknown the topic is looked up across all subjects. Unknown topics yield
// nil.
func (c *Catalog) Subtopics(subject, topic string) []string {
	tk := key(topic)
	if topics, ok := c.byTopic[key(subject)]; ok {
		if t, ok := topics[tk]; ok {
			return slices.Clone(t.Subtopics)
		}
		return nil
	}
	if t, ok := c.anyTopic[tk]; ok {
		return slices.Clone(t.Subtopics)
	}
	return nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// validateSubjects performs all structural checks on the given subjects.
// Returns a combined error describing all problems found, or nil if valid.
func validateSubjects(subjects []Subject) error {
	var errs []string

	if len(subjects) == 0 {
		errs = append(errs, "no subjects defined")
	}

	subjectSet := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		sk := key(s.Name)
		if sk == "" {
			errs = append(errs, "subject with empty name")
			continue
		}
		if subjectSet[sk] {
			errs = append(errs, fmt.Sprintf("duplicate subject: %q", s.Name))
		}
		subjectSet[sk] = true

		if len(s.Topics) == 0 {
			errs = append(errs, fmt.Sprintf("subject %q has no topics", s.Name))
		}

		topicSet := make(map[string]bool, len(s.Topics))
		for _, t := range s.Topics {
			tk := key(t.Name)
			if tk == "" {
				errs = append(errs, fmt.Sprintf("subject %q has a topic with empty name", s.Name))
				continue
			}
			if topicSet[tk] {
				errs = append(errs, fmt.Sprintf("subject %q: duplicate topic %q", s.Name, t.Name))
			}
			topicSet[tk] = true

			if len(t.Subtopics) == 0 {
				errs = append(errs, fmt.Sprintf("topic %q has no subtopics", t.Name))
			}
			subSet := make(map[string]bool, len(t.Subtopics))
			for _, st := range t.Subtopics {
				if subSet[key(st)] {
					errs = append(errs, fmt.Sprintf("topic %q: duplicate subtopic %q", t.Name, st))
				}
				subSet[key(st)] = true
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("syllabus validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
