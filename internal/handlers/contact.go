package handlers

import (
	"github.com/orangeuaswe/portfolio-web/internal/contact"
)

// Banner copy shown after a submission completes.
const (
	SuccessTitle = "Message sent successfully!"
	SuccessBody  = "Thanks for reaching out. I'll respond soon."
	ErrorTitle   = "Something went wrong."
	ErrorBody    = "Please try again later or email me directly at"
)

// FieldView is one rendered form input.
type FieldView struct {
	Name         string
	Label        string
	Type         string
	Value        string
	Error        string
	Placeholder  string
	AutoComplete string
	Multiline    bool
}

// ErrorID is the id of the element describing the field error.
func (f FieldView) ErrorID() string { return f.Name + "-error" }

// Banner is the success or error notice above the form.
type Banner struct {
	Kind  string
	Title string
	Body  string
	Email string
}

// ContactFormView is the view model for the contact form partial.
type ContactFormView struct {
	Action    string
	CSRFToken string

	Name    FieldView
	Email   FieldView
	Subject FieldView
	Message FieldView
	Company string

	Status         contact.Status
	SubmitDisabled bool
	Banner         *Banner
}

// NewContactFormView maps a form snapshot to its rendered shape.
func NewContactFormView(s contact.Snapshot, fallbackEmail, csrfToken string) ContactFormView {
	field := func(f contact.Field, label, typ, placeholder, autocomplete string) FieldView {
		return FieldView{
			Name:         string(f),
			Label:        label,
			Type:         typ,
			Value:        s.Values.Get(f),
			Error:        s.Errors[f],
			Placeholder:  placeholder,
			AutoComplete: autocomplete,
		}
	}

	v := ContactFormView{
		Action:         "/contact",
		CSRFToken:      csrfToken,
		Name:           field(contact.FieldName, "Your Name", "text", "e.g. Anirudh Deveram", "name"),
		Email:          field(contact.FieldEmail, "Email Address", "email", "you@example.com", "email"),
		Subject:        field(contact.FieldSubject, "Subject", "text", "Project collaboration, internship, etc.", "off"),
		Message:        field(contact.FieldMessage, "Message", "", "Tell me about your project, opportunity, or how we can work together...", ""),
		Company:        s.Values.Company,
		Status:         s.Status,
		SubmitDisabled: s.SubmitDisabled,
	}
	v.Message.Multiline = true

	switch s.Status {
	case contact.StatusSuccess:
		v.Banner = &Banner{Kind: "success", Title: SuccessTitle, Body: SuccessBody}
	case contact.StatusError:
		v.Banner = &Banner{Kind: "error", Title: ErrorTitle, Body: ErrorBody, Email: fallbackEmail}
	}
	return v
}
