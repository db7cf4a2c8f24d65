// Package mailtemplate renders transactional emails. Rendering is pure: the
// output depends only on the kind and the data map.
package mailtemplate

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	"strings"
	texttpl "text/template"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// Rendered is a ready-to-send message body.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
	// Missing lists required fields that were absent and rendered as placeholders.
	Missing []string
}

// Vars is the resolved view of the data map handed to the templates.
type Vars map[string]string

type fields struct {
	required []string
	optional map[string]string // field -> default
}

type compiled struct {
	html *htmltpl.Template
	text *texttpl.Template
}

var templates = map[domain.TemplateKind]compiled{}

func init() {
	for _, k := range domain.TemplateKinds {
		src, ok := sources[k]
		if !ok {
			panic(fmt.Sprintf("mailtemplate: no template source for %q", k))
		}
		layout := htmltpl.Must(htmltpl.New("layout").Parse(layoutHTML))
		templates[k] = compiled{
			html: htmltpl.Must(htmltpl.Must(layout.Clone()).Parse(src.html)),
			text: texttpl.Must(texttpl.New(string(k)).Parse(src.text)),
		}
	}
}

// Render produces the subject and bodies for kind. Unknown kinds fail with
// domain.ErrUnknownTemplateKind; missing required fields never fail.
func Render(kind domain.TemplateKind, data map[string]string) (Rendered, error) {
	var (
		f       fields
		subject func(Vars) string
	)
	switch kind {
	case domain.KindVerification:
		f = fields{
			required: []string{"code"},
			optional: map[string]string{"username": "there", "expiresInMinutes": "10"},
		}
		subject = func(Vars) string { return "Your verification code" }
	case domain.KindWelcome:
		f = fields{
			required: []string{"username"},
			optional: map[string]string{"loginURL": ""},
		}
		subject = func(v Vars) string { return "Welcome aboard, " + v["username"] }
	case domain.KindPasswordReset:
		f = fields{
			required: []string{"resetLink"},
			optional: map[string]string{"username": "there", "expiresInMinutes": "30"},
		}
		subject = func(Vars) string { return "Reset your password" }
	case domain.KindPasswordResetNotification:
		f = fields{
			required: []string{"username", "timestamp", "ip"},
			optional: map[string]string{"deviceInfo": "unknown device"},
		}
		subject = func(Vars) string { return "Your password was reset" }
	case domain.KindPasswordChangeNotification:
		f = fields{
			required: []string{"username", "timestamp", "ip", "deviceInfo"},
		}
		subject = func(Vars) string { return "Your password was changed" }
	case domain.KindSecurityAlert:
		f = fields{
			required: []string{"username", "event", "timestamp", "ip"},
			optional: map[string]string{"location": "unknown location"},
		}
		subject = func(v Vars) string { return "Security alert: " + v["event"] }
	case domain.KindAdminNotification:
		f = fields{
			required: []string{"title", "message"},
			optional: map[string]string{"username": ""},
		}
		subject = func(v Vars) string { return "[Admin] " + v["title"] }
	default:
		return Rendered{}, fmt.Errorf("%q: %w", kind, domain.ErrUnknownTemplateKind)
	}

	vars, missing := resolve(f, data)
	t := templates[kind]

	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, "layout", vars); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	if err := t.text.Execute(&text, vars); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	return Rendered{
		Subject: strings.Join(strings.Fields(subject(vars)), " "),
		HTML:    html.String(),
		Text:    text.String(),
		Missing: missing,
	}, nil
}

// Placeholder is what a missing required field renders as.
func Placeholder(field string) string {
	return "[" + field + " unavailable]"
}

func resolve(f fields, data map[string]string) (Vars, []string) {
	vars := make(Vars, len(f.required)+len(f.optional))
	var missing []string
	for _, name := range f.required {
		if v := data[name]; v != "" {
			vars[name] = v
			continue
		}
		vars[name] = Placeholder(name)
		missing = append(missing, name)
	}
	for name, def := range f.optional {
		if v := data[name]; v != "" {
			vars[name] = v
		} else {
			vars[name] = def
		}
	}
	return vars, missing
}
