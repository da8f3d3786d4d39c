package domain

// Content is the typed view of a block's data payload. Exactly one variant
// exists per BlockType; switch on the concrete type to handle each.
type Content interface {
	blockType() BlockType
}

type TextContent struct {
	Text string `json:"text"`
}

type HeaderContent struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type FormBoxContent struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ListContent struct {
	Items []string `json:"items"`
}

type ImageContent struct {
	Src string `json:"src"` // data URI
}

type ShapeContent struct {
	Shape ShapeKind `json:"shape"`
}

type DividerContent struct{}

type ContainerContent struct{}

func (TextContent) blockType() BlockType      { return BlockTypeText }
func (HeaderContent) blockType() BlockType    { return BlockTypeHeader }
func (FormBoxContent) blockType() BlockType   { return BlockTypeFormBox }
func (ListContent) blockType() BlockType      { return BlockTypeList }
func (ImageContent) blockType() BlockType     { return BlockTypeImage }
func (ShapeContent) blockType() BlockType     { return BlockTypeShape }
func (DividerContent) blockType() BlockType   { return BlockTypeDivider }
func (ContainerContent) blockType() BlockType { return BlockTypeContainer }

// defaultListItems is what an untouched list block shows.
var defaultListItems = []string{"Item 1", "Item 2"}

// Content decodes the free-form data map into the variant for b.Type.
// Missing or mistyped fields fall back to the variant's defaults.
// Returns nil for a block whose type is outside the closed set.
func (b Block) Content() Content {
	switch b.Type {
	case BlockTypeText:
		return TextContent{Text: stringField(b.Data, "text")}
	case BlockTypeHeader:
		level := b.Config.Level
		if level < 1 || level > 3 {
			level = 1
		}
		return HeaderContent{Text: stringField(b.Data, "text"), Level: level}
	case BlockTypeFormBox:
		return FormBoxContent{Label: stringField(b.Data, "label"), Value: stringField(b.Data, "value")}
	case BlockTypeList:
		items, ok := stringsField(b.Data, "items")
		if !ok {
			items = append([]string(nil), defaultListItems...)
		}
		return ListContent{Items: items}
	case BlockTypeImage:
		return ImageContent{Src: stringField(b.Data, "src")}
	case BlockTypeShape:
		shape := b.Config.ShapeType
		if shape == "" {
			shape = ShapeSquare
		}
		return ShapeContent{Shape: shape}
	case BlockTypeDivider:
		return DividerContent{}
	case BlockTypeContainer:
		return ContainerContent{}
	}
	return nil
}

// ContentPatch encodes a variant back into the partial data map that
// UpdateBlockData expects. Variants without data yield an empty patch.
func ContentPatch(c Content) map[string]any {
	switch v := c.(type) {
	case TextContent:
		return map[string]any{"text": v.Text}
	case HeaderContent:
		return map[string]any{"text": v.Text}
	case FormBoxContent:
		return map[string]any{"label": v.Label, "value": v.Value}
	case ListContent:
		items := make([]any, len(v.Items))
		for i, s := range v.Items {
			items[i] = s
		}
		return map[string]any{"items": items}
	case ImageContent:
		return map[string]any{"src": v.Src}
	}
	return map[string]any{}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringsField(m map[string]any, key string) ([]string, bool) {
	switch v := m[key].(type) {
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, _ := e.(string)
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
