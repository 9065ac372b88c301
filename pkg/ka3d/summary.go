package ka3d

// Summary is a flat description of a decoded asset, used by the tooling.
type Summary struct {
	Tag       string `json:"tag" yaml:"tag"`
	Schema    string `json:"schema" yaml:"schema"`
	Dialect   string `json:"dialect" yaml:"dialect"`
	Version   int    `json:"version" yaml:"version"`
	Records   int    `json:"records" yaml:"records"`
	Texture   string `json:"texture,omitempty" yaml:"texture,omitempty"`
	Languages int    `json:"languages,omitempty" yaml:"languages,omitempty"`
	Children  int    `json:"children,omitempty" yaml:"children,omitempty"`
}

// Summarize counts the records of the asset's segment. Records is the
// sprite, character, clip, composite or text ID count; Children is the
// total frame or layer count.
func Summarize(a *Asset) Summary {
	seg := a.Segment
	s := Summary{
		Tag:     seg.Tag().String(),
		Schema:  SchemaName(seg.Tag()),
		Dialect: a.Dialect.String(),
		Version: int(seg.wireVersion()),
	}
	switch v := seg.(type) {
	case *SpriteSheet:
		s.Records = v.Len()
		s.Texture = v.TextureFile
	case *Font:
		s.Records = v.Len()
		s.Texture = v.TextureFile
	case *Localization:
		s.Records = v.Len()
		s.Languages = len(v.Languages())
	case *CompositeSprites:
		s.Records = v.Len()
		if v.Composites != nil {
			for layers := range v.Composites.Values() {
				s.Children += len(layers)
			}
		}
	case *Animation:
		s.Records = v.Len()
		if v.Clips != nil {
			for clip := range v.Clips.Values() {
				s.Children += clip.Len()
			}
		}
	}
	return s
}

// Fields returns the summary as a map, for expression activations and
// structured messages.
func (s Summary) Fields() map[string]any {
	return map[string]any{
		"tag":       s.Tag,
		"schema":    s.Schema,
		"dialect":   s.Dialect,
		"version":   int64(s.Version),
		"records":   int64(s.Records),
		"texture":   s.Texture,
		"languages": int64(s.Languages),
		"children":  int64(s.Children),
	}
}
