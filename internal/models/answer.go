package models

import "strings"

// Answer is the learner's value for one slot. Option is used by choice shapes,
// Text by matching, word bank and writing shapes.
type Answer struct {
	Option *int    `json:"option,omitempty"`
	Text   *string `json:"text,omitempty"`
}

// Submission maps answer slot IDs to answers.
type Submission map[string]Answer

func OptionAnswer(i int) Answer {
	return Answer{Option: &i}
}

func TextAnswer(s string) Answer {
	return Answer{Text: &s}
}

func (a Answer) IsEmpty() bool {
	return a.Option == nil && (a.Text == nil || strings.TrimSpace(*a.Text) == "")
}

// Clone returns a deep copy.
func (s Submission) Clone() Submission {
	if s == nil {
		return nil
	}
	out := make(Submission, len(s))
	for k, v := range s {
		var a Answer
		if v.Option != nil {
			o := *v.Option
			a.Option = &o
		}
		if v.Text != nil {
			t := *v.Text
			a.Text = &t
		}
		out[k] = a
	}
	return out
}

// Merge overlays other on top of s. Empty answers in other clear the slot.
func (s Submission) Merge(other Submission) Submission {
	out := s.Clone()
	if out == nil {
		out = make(Submission, len(other))
	}
	for k, v := range other.Clone() {
		if v.IsEmpty() {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func (s Submission) Option(slot string) (int, bool) {
	a, ok := s[slot]
	if !ok || a.Option == nil {
		return 0, false
	}
	return *a.Option, true
}

func (s Submission) Text(slot string) (string, bool) {
	a, ok := s[slot]
	if !ok || a.Text == nil {
		return "", false
	}
	return *a.Text, true
}
