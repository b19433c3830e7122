// Package fallback serves pre-authored questions when no provider could
// produce one. Lookups never fail.
package fallback

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/examgen/internal/problemgen"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var embedded []byte

// Item is one canned question as authored in the bank file.
type Item struct {
	Question string `yaml:"question"`
	Solution string `yaml:"solution"`
	Answer   string `yaml:"answer"`
	Subtopic string `yaml:"subtopic"`
	Points   *int   `yaml:"points"`
}

// Candidate converts the item into the shape provider output is parsed
// into, so it can go through the same finalization.
func (it Item) Candidate() problemgen.CandidateAnswer {
	return problemgen.CandidateAnswer{
		Question: strings.TrimSpace(it.Question),
		Solution: strings.TrimSpace(it.Solution),
		Answer:   strings.TrimSpace(it.Answer),
		Points:   it.Points,
		Subtopic: it.Subtopic,
	}
}

type entry struct {
	Topic      string                `yaml:"topic"`
	Difficulty problemgen.Difficulty `yaml:"difficulty"`
	Items      []Item                `yaml:"items"`
}

type document struct {
	Default []Item  `yaml:"default"`
	Entries []entry `yaml:"entries"`
}

// genericItem backs a bank whose default list is empty.
var genericItem = Item{
	Question: "Summarise the key idea of the topic you are studying and give one worked example.",
	Solution: "State the key idea in one sentence.\nWork through a short example step by step.\nTherefore the example shows the idea applied.",
}

// Bank is an immutable table of canned questions keyed by topic and
// difficulty.
type Bank struct {
	exact    map[string][]Item
	byTopic  map[string][]Item
	defaults []Item
}

// Load builds the bank from the embedded bank file. Every item must have a
// solution of at least minSolutionLen characters; zero or less uses the
// problemgen default.
func Load(minSolutionLen int) (*Bank, error) {
	return Parse(embedded, minSolutionLen)
}

// Parse decodes and validates a YAML bank document against the same
// minimum solution length provider output is held to.
func Parse(data []byte, minSolutionLen int) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode fallback bank: %w", err)
	}
	if minSolutionLen <= 0 {
		minSolutionLen = problemgen.DefaultConfig().MinSolutionLen
	}
	if len(doc.Default) == 0 {
		doc.Default = []Item{genericItem}
	}
	if err := validate(doc, minSolutionLen); err != nil {
		return nil, err
	}

	b := &Bank{
		exact:    make(map[string][]Item),
		byTopic:  make(map[string][]Item),
		defaults: doc.Default,
	}
	for _, e := range doc.Entries {
		tk := topicKey(e.Topic)
		b.exact[exactKey(tk, e.Difficulty)] = append(b.exact[exactKey(tk, e.Difficulty)], e.Items...)
		b.byTopic[tk] = append(b.byTopic[tk], e.Items...)
	}
	return b, nil
}

// Candidates returns every item for the resolved key: the exact
// (topic, difficulty) entry, else any difficulty of the topic, else the
// generic defaults. The result is never empty.
func (b *Bank) Candidates(topic string, difficulty problemgen.Difficulty) []Item {
	tk := topicKey(topic)
	if items := b.exact[exactKey(tk, difficulty)]; len(items) > 0 {
		return items
	}
	if items := b.byTopic[tk]; len(items) > 0 {
		return items
	}
	return b.defaults
}

// Lookup returns the first candidate for the request, finalized with
// static-bank provenance.
func (b *Bank) Lookup(req problemgen.GenerationRequest, subtopic string) *problemgen.ValidatedQuestion {
	it := b.Candidates(req.Topic, req.Difficulty)[0]
	return problemgen.Finalize(it.Candidate(), req, subtopic, problemgen.SourceStatic, "", time.Now())
}

func validate(doc document, minSolutionLen int) error {
	check := &problemgen.StructuralValidator{MinSolutionLen: minSolutionLen}
	var errs []string

	validateItems := func(where string, items []Item) {
		for i, it := range items {
			c := it.Candidate()
			if verr := check.Validate(&c, problemgen.GenerationRequest{}); verr != nil {
				errs = append(errs, fmt.Sprintf("%s item %d: %s", where, i, verr.Message))
			}
		}
	}

	validateItems("default", doc.Default)
	for _, e := range doc.Entries {
		where := fmt.Sprintf("%s/%s", e.Topic, e.Difficulty)
		if strings.TrimSpace(e.Topic) == "" {
			errs = append(errs, "entry with empty topic")
		}
		if _, err := problemgen.ParseDifficulty(string(e.Difficulty)); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", where, err))
		}
		if len(e.Items) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no items", where))
		}
		validateItems(where, e.Items)
	}

	if len(errs) > 0 {
		return fmt.Errorf("fallback bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func topicKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

func exactKey(topicKey string, d problemgen.Difficulty) string {
	return topicKey + "\x00" + string(d)
}
