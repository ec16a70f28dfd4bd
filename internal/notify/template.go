// Package notify sends signup confirmation e-mails.
package notify

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/mergington/activities-portal/internal/domain"
)

// Default templates used when config leaves them blank.
const (
	DefaultSubject = "You're signed up for {{ activity }}"
	DefaultBody    = "Hi {{ email }},\n\n" +
		"You are now on the roster for {{ activity }}.\n" +
		"{{ description }}\n\n" +
		"Schedule: {{ schedule | default: \"to be announced\" }}\n"
)

// Renderer renders the confirmation subject and body with Liquid.
// Parsed templates are cached; Renderer is safe for concurrent use.
type Renderer struct {
	engine  *liquid.Engine
	subject string
	body    string

	mu    sync.Mutex
	cache map[string]*liquid.Template
}

// NewRenderer returns a Renderer for the given templates. Blank templates
// fall back to the defaults. Both are parsed up front so a bad template
// fails at startup rather than on the first signup.
func NewRenderer(subject, body string) (*Renderer, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultBody
	}
	r := &Renderer{
		engine:  liquid.NewEngine(),
		subject: subject,
		body:    body,
		cache:   make(map[string]*liquid.Template),
	}
	for _, src := range []string{subject, body} {
		if _, err := r.parse(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Message is a rendered confirmation.
type Message struct {
	Subject string
	Body    string
}

// Render fills both templates for a signup.
func (r *Renderer) Render(a domain.Activity, email string) (Message, error) {
	b := liquid.Bindings{
		"email":       email,
		"activity":    a.Name,
		"schedule":    a.Schedule,
		"description": a.Description,
	}
	subject, err := r.render(r.subject, b)
	if err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	body, err := r.render(r.body, b)
	if err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}
	return Message{Subject: subject, Body: body}, nil
}

func (r *Renderer) parse(src string) (*liquid.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[src]; ok {
		return tpl, nil
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	r.cache[src] = tpl
	return tpl, nil
}

func (r *Renderer) render(src string, b liquid.Bindings) (string, error) {
	tpl, err := r.parse(src)
	if err != nil {
		return "", err
	}
	out, serr := tpl.RenderString(b)
	if serr != nil {
		return "", serr
	}
	return out, nil
}
