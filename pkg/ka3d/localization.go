package ka3d

import (
	"fmt"
	"slices"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Localization is a text table: an ordered set of language codes, an
// ordered set of text IDs and, per language, one string per ID at the ID's
// position. The three parts only change together, so every language list
// always has exactly len(TextIDs()) entries.
//
// The zero value is an empty table ready to use.
type Localization struct {
	texts *orderedmap.OrderedMap[string, []string]
	ids   []string
	index map[string]int
}

// NewLocalization returns an empty table.
func NewLocalization() *Localization {
	l := &Localization{}
	l.init()
	return l
}

func (l *Localization) init() {
	if l.texts == nil {
		l.texts = orderedmap.NewOrderedMap[string, []string]()
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
}

func (l *Localization) Tag() datfile.Tag { return datfile.TagText }

func (l *Localization) wireVersion() int16 { return 1 }

// Languages returns a copy of the language codes in order.
func (l *Localization) Languages() []string {
	if l.texts == nil {
		return nil
	}
	return slices.Collect(l.texts.Keys())
}

// TextIDs returns a copy of the text IDs in order.
func (l *Localization) TextIDs() []string {
	return slices.Clone(l.ids)
}

// Len returns the number of text IDs.
func (l *Localization) Len() int {
	return len(l.ids)
}

// HasLanguage reports whether lang is part of the table.
func (l *Localization) HasLanguage(lang string) bool {
	return l.texts != nil && l.texts.Has(lang)
}

// HasTextID reports whether id is part of the table.
func (l *Localization) HasTextID(id string) bool {
	_, ok := l.index[id]
	return ok
}

// AddLanguage appends lang with one empty string per existing text ID.
func (l *Localization) AddLanguage(lang string) error {
	l.init()
	if l.texts.Has(lang) {
		return fmt.Errorf("%w: language %q", ErrDuplicate, lang)
	}
	l.texts.Set(lang, make([]string, len(l.ids)))
	return nil
}

// RemoveLanguage drops lang and its strings.
func (l *Localization) RemoveLanguage(lang string) bool {
	if l.texts == nil {
		return false
	}
	return l.texts.Delete(lang)
}

// AddTextID appends id and one empty string to every language. It returns
// false when id already exists.
func (l *Localization) AddTextID(id string) bool {
	l.init()
	if _, ok := l.index[id]; ok {
		return false
	}
	l.index[id] = len(l.ids)
	l.ids = append(l.ids, id)
	for el := l.texts.Front(); el != nil; el = el.Next() {
		el.Value = append(el.Value, "")
	}
	return true
}

// RemoveTextID removes id and the string at its position from every
// language.
func (l *Localization) RemoveTextID(id string) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.ids = slices.Delete(l.ids, i, i+1)
	delete(l.index, id)
	for j := i; j < len(l.ids); j++ {
		l.index[l.ids[j]] = j
	}
	for el := l.texts.Front(); el != nil; el = el.Next() {
		el.Value = slices.Delete(el.Value, i, i+1)
	}
	return true
}

// ClearTextIDs removes every ID and string but keeps the languages.
func (l *Localization) ClearTextIDs() {
	l.ids = nil
	clear(l.index)
	if l.texts == nil {
		return
	}
	for el := l.texts.Front(); el != nil; el = el.Next() {
		el.Value = el.Value[:0]
	}
}

// Clear removes everything.
func (l *Localization) Clear() {
	l.ids = nil
	l.index = nil
	l.texts = nil
	l.init()
}

// Text returns the string for (lang, id).
func (l *Localization) Text(lang, id string) (string, bool) {
	i, ok := l.index[id]
	if !ok || l.texts == nil {
		return "", false
	}
	texts, ok := l.texts.Get(lang)
	if !ok {
		return "", false
	}
	return texts[i], true
}

// SetText replaces the string for (lang, id). Both must already exist.
func (l *Localization) SetText(lang, id, value string) bool {
	i, ok := l.index[id]
	if !ok || l.texts == nil {
		return false
	}
	el := l.texts.GetElement(lang)
	if el == nil {
		return false
	}
	el.Value[i] = value
	return true
}

// Texts returns a copy of the strings for lang, aligned with TextIDs.
func (l *Localization) Texts(lang string) ([]string, bool) {
	if l.texts == nil {
		return nil, false
	}
	texts, ok := l.texts.Get(lang)
	if !ok {
		return nil, false
	}
	return slices.Clone(texts), true
}

// ReadLocalization locates the TEXT segment and decodes it.
func ReadLocalization(r *datfile.Reader) (*Localization, error) {
	seg, err := schemas[datfile.TagText].read(r)
	if err != nil {
		return nil, err
	}
	return seg.(*Localization), nil
}

// nested runs fn inside the sub-segment tag and closes it with the reader's
// default policy, also when fn fails.
func nested(r *datfile.Reader, tag datfile.Tag, fn func() error) (err error) {
	f, err := r.Expect(tag)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("reading %s: %w", tag, err)
	}
	return nil
}

func decodeLocalization(r *datfile.Reader) (*Localization, error) {
	l := NewLocalization()

	err := nested(r, datfile.TagLanguages, func() error {
		count, err := r.ReadCount("language")
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			lang, err := r.ReadString()
			if err != nil {
				return err
			}
			if err := l.AddLanguage(lang); err != nil {
				return fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = nested(r, datfile.TagTextIDs, func() error {
		count, err := r.ReadCount("text ID")
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			id, err := r.ReadString()
			if err != nil {
				return err
			}
			if !l.AddTextID(id) {
				return fmt.Errorf("%w: %w: text ID %q", datfile.ErrMalformed, ErrDuplicate, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for el := l.texts.Front(); el != nil; el = el.Next() {
		texts := el.Value
		err := nested(r, datfile.TagTextGroup, func() error {
			for i := range texts {
				s, err := r.ReadString()
				if err != nil {
					return fmt.Errorf("language %q text %d: %w", el.Key, i, err)
				}
				texts[i] = s
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

// writeNested runs fn inside a new sub-segment and always closes it.
func writeNested(w *datfile.Writer, tag datfile.Tag, fn func() error) (err error) {
	f, err := w.OpenSegment(tag)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("writing %s: %w", tag, err)
	}
	return nil
}

func (l *Localization) encodePayload(w *datfile.Writer) error {
	l.init()
	err := writeNested(w, datfile.TagLanguages, func() error {
		if err := w.WriteCount("language", l.texts.Len()); err != nil {
			return err
		}
		for lang := range l.texts.Keys() {
			if err := w.WriteString(lang); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = writeNested(w, datfile.TagTextIDs, func() error {
		if err := w.WriteCount("text ID", len(l.ids)); err != nil {
			return err
		}
		for _, id := range l.ids {
			if err := w.WriteString(id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for texts := range l.texts.Values() {
		err := writeNested(w, datfile.TagTextGroup, func() error {
			for _, s := range texts {
				if err := w.WriteString(s); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
