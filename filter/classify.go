package filter

import (
	"strings"

	"channel-relay/models"
)

// Reason explains why a post was dropped.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonEmpty    Reason = "empty"
	ReasonStopWord Reason = "stop_word"
)

// Verdict is the outcome of classifying a rendered post.
type Verdict struct {
	Drop   bool
	Reason Reason
	// Word is the configured stop word that matched, if any.
	Word string
}

// wordList matches configured words as case-insensitive substrings.
type wordList struct {
	words []string
	lower []string
}

func newWordList(words []string) wordList {
	var l wordList
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			continue
		}
		l.words = append(l.words, w)
		l.lower = append(l.lower, strings.ToLower(w))
	}
	return l
}

func (l wordList) match(text string) (string, bool) {
	if len(l.lower) == 0 {
		return "", false
	}
	lt := strings.ToLower(text)
	for i, w := range l.lower {
		if strings.Contains(lt, w) {
			return l.words[i], true
		}
	}
	return "", false
}

// Filter bundles the blacklist with the stop-word and alert-word lists.
type Filter struct {
	blacklist *Blacklist
	stop      wordList
	alert     wordList
}

// New builds a Filter from configuration.
func New(cfg models.FilterConfig) (*Filter, error) {
	bl, err := NewBlacklist(cfg.Blacklist)
	if err != nil {
		return nil, err
	}
	return &Filter{
		blacklist: bl,
		stop:      newWordList(cfg.StopWords),
		alert:     newWordList(cfg.AlertWords),
	}, nil
}

// Blacklist returns the phrase scrubber.
func (f *Filter) Blacklist() *Blacklist {
	return f.blacklist
}

// Classify decides whether a rendered post is dropped. Empty posts and posts
// containing a stop word are dropped.
func (f *Filter) Classify(rendered string) Verdict {
	if strings.TrimSpace(rendered) == "" {
		return Verdict{Drop: true, Reason: ReasonEmpty}
	}
	if w, ok := f.stop.match(rendered); ok {
		return Verdict{Drop: true, Reason: ReasonStopWord, Word: w}
	}
	return Verdict{}
}

// StopWord reports the first stop word found in text.
func (f *Filter) StopWord(text string) (string, bool) {
	return f.stop.match(text)
}

// AlertWord reports the first alert word found in text.
func (f *Filter) AlertWord(text string) (string, bool) {
	return f.alert.match(text)
}
