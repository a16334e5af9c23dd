package domain

const (
	ContentPartTypeText  = "text"
	ContentPartTypeImage = "image"
)

// ContentPart is one normalized unit of user-supplied input: a run of plain
// text or an inline image pasted into the description editor.
type ContentPart struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	Base64Data string `json:"base64_data,omitempty"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

func ImagePart(mimeType, base64Data string) ContentPart {
	return ContentPart{Type: ContentPartTypeImage, MimeType: mimeType, Base64Data: base64Data}
}

func (p ContentPart) IsText() bool { return p.Type == ContentPartTypeText }

func (p ContentPart) IsImage() bool { return p.Type == ContentPartTypeImage }

// PlainText joins the text parts in order, ignoring images.
func PlainText(parts []ContentPart) string {
	var text string
	for _, p := range parts {
		if p.IsText() {
			text += p.Text
		}
	}
	return text
}
