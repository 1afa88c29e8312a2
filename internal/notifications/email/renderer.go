package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"propertyalerts/internal/types"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// RenderedEmail is the content handed to raw-content providers.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
	BodyText string
}

type renderView struct {
	Payload
	Subject string
}

// Renderer renders the embedded alert templates.
type Renderer struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

// NewRenderer parses every alert template up front so a broken template
// fails at startup rather than per send.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		html: make(map[string]*htmltemplate.Template),
		text: make(map[string]*texttemplate.Template),
	}
	for _, name := range []string{TemplateOnMarket, TemplateOffMarket} {
		h, err := htmltemplate.New("base.html").ParseFS(templateFS,
			"templates/base.html", "templates/listing.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("renderer: parse %s.html: %w", name, err)
		}
		t, err := texttemplate.New(name+".txt").ParseFS(templateFS,
			"templates/listing.txt", "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("renderer: parse %s.txt: %w", name, err)
		}
		r.html[name] = h
		r.text[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(name, subject string, p Payload) (*RenderedEmail, error) {
	h, ok := r.html[name]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, fmt.Sprintf("unknown template %q", name), nil)
	}
	view := renderView{Payload: p, Subject: subject}

	var htmlBuf, textBuf bytes.Buffer
	if err := h.Execute(&htmlBuf, view); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, "render html body", err)
	}
	if err := r.text[name].Execute(&textBuf, view); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalTemplate, "render text body", err)
	}
	return &RenderedEmail{
		Subject:  subject,
		BodyHTML: htmlBuf.String(),
		BodyText: textBuf.String(),
	}, nil
}
