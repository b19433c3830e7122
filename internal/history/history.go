// Package history keeps bounded, in-memory recency lists per actor so that
// generation can steer away from recently shown questions and subtopics.
// State lives for the process lifetime only.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

const shardCount = 32

// Config sets the recency window sizes.
type Config struct {
	// FingerprintCap bounds the fingerprint list per (actor, subject).
	FingerprintCap int `yaml:"fingerprint_cap"`

	// SubtopicCap bounds the subtopic list per (actor, topic).
	SubtopicCap int `yaml:"subtopic_cap"`

	// MinFresh is the number of not-recently-shown items below which
	// Filter also returns recently shown ones.
	MinFresh int `yaml:"min_fresh"`
}

// DefaultConfig returns the standard window sizes.
func DefaultConfig() Config {
	return Config{
		FingerprintCap: 50,
		SubtopicCap:    10,
		MinFresh:       3,
	}
}

// Tracker holds recency lists. It is safe for concurrent use.
type Tracker struct {
	cfg    Config
	shards [shardCount]shard
	intn   func(n int) int
}

type shard struct {
	mu    sync.Mutex
	lists map[string][]string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRand makes subtopic selection draw from r. Access to r is
// serialized.
func WithRand(r *rand.Rand) Option {
	var mu sync.Mutex
	return func(t *Tracker) {
		t.intn = func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return r.IntN(n)
		}
	}
}

// New creates a Tracker. Non-positive caps fall back to the defaults.
func New(cfg Config, opts ...Option) *Tracker {
	def := DefaultConfig()
	if cfg.FingerprintCap <= 0 {
		cfg.FingerprintCap = def.FingerprintCap
	}
	if cfg.SubtopicCap <= 0 {
		cfg.SubtopicCap = def.SubtopicCap
	}
	if cfg.MinFresh < 0 {
		cfg.MinFresh = 0
	}

	t := &Tracker{cfg: cfg, intn: rand.IntN}
	for i := range t.shards {
		t.shards[i].lists = make(map[string][]string)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the tracker's window sizes.
func (t *Tracker) Config() Config {
	return t.cfg
}

// RecentFingerprints returns the current fingerprint window for an actor
// and subject.
func (t *Tracker) RecentFingerprints(actor, subjectKey string) map[string]struct{} {
	list := t.snapshot(fingerprintKey(actor, subjectKey))
	set := make(map[string]struct{}, len(list))
	for _, fp := range list {
		set[fp] = struct{}{}
	}
	return set
}

// RecordFingerprint inserts fp as most recent, moving it if already
// present and evicting the oldest entries beyond the cap.
func (t *Tracker) RecordFingerprint(actor, subjectKey, fp string) {
	if fp == "" {
		return
	}
	t.touch(fingerprintKey(actor, subjectKey), fp, t.cfg.FingerprintCap)
}

// RecentSubtopics returns the subtopics recently chosen for an actor and
// topic, most recent last.
func (t *Tracker) RecentSubtopics(actor, topic string) []string {
	return t.snapshot(subtopicKey(actor, topic))
}

// RecordSubtopic records subtopic as most recently chosen.
func (t *Tracker) RecordSubtopic(actor, topic, subtopic string) {
	if subtopic == "" {
		return
	}
	t.touch(subtopicKey(actor, topic), subtopic, t.cfg.SubtopicCap)
}

// ChooseSubtopic picks uniformly among the subtopics in all that are not in
// the actor's recent window for topic. Once every subtopic is recent the
// pick is uniform over all of them. Returns "" when all is empty.
//
// ChooseSubtopic does not record its choice; callers record the subtopic
// once a question has been produced for it.
func (t *Tracker) ChooseSubtopic(actor, topic string, all []string) string {
	if len(all) == 0 {
		return ""
	}

	recent := t.RecentSubtopics(actor, topic)
	fresh := make([]string, 0, len(all))
	for _, s := range all {
		if !slices.Contains(recent, s) {
			fresh = append(fresh, s)
		}
	}

	if len(fresh) > 0 {
		return fresh[t.intn(len(fresh))]
	}
	return all[t.intn(len(all))]
}

// Filter partitions items into not-recently-shown and recently-shown by
// their fingerprint. It returns the fresh items, or, when fewer than
// MinFresh are fresh, the fresh items followed by the recent ones.
func Filter[T any](t *Tracker, actor, subjectKey string, items []T, fp func(T) string) []T {
	recent := t.RecentFingerprints(actor, subjectKey)

	var fresh, seen []T
	for _, it := range items {
		if _, ok := recent[fp(it)]; ok {
			seen = append(seen, it)
		} else {
			fresh = append(fresh, it)
		}
	}

	if len(fresh) >= t.cfg.MinFresh {
		return fresh
	}
	return append(fresh, seen...)
}

// Fingerprint derives a stable identifier for question text: sha256 over
// the lower-cased text with whitespace runs collapsed, hex encoded.
func Fingerprint(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

func (t *Tracker) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &t.shards[h.Sum32()%shardCount]
}

func (t *Tracker) snapshot(key string) []string {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lists[key])
}

func (t *Tracker) touch(key, value string, limit int) {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	if i := slices.Index(list, value); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	list = append(list, value)
	if len(list) > limit {
		list = slices.Clone(list[len(list)-limit:])
	}
	s.lists[key] = list
}

func fingerprintKey(actor, subjectKey string) string {
	return "fp\x00" + actor + "\x00" + subjectKey
}

func subtopicKey(actor, topic string) string {
	return "st\x00" + actor + "\x00" + strings.ToLower(topic)
}
