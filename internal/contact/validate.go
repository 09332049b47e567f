package contact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation messages surfaced next to each field.
const (
	MsgName      = "Please enter your name."
	MsgEmail     = "Please enter a valid email."
	MsgSubject   = "Please add a subject."
	MsgMessage   = "Message should be at least 10 characters."
	MsgSpamCheck = "Form failed spam check."
)

// MinMessageLength is the minimum trimmed message length in characters.
const MinMessageLength = 10

// emailPattern is a permissive syntactic check: something@something.something with no
// whitespace. The class mirrors the browser's \S (Unicode space separators, line
// terminators and BOM count as whitespace), which Go's ASCII-only \S does not.
var emailPattern = regexp.MustCompile(`^[^\t\n\v\f\r\p{Z}\x{FEFF}]+@[^\t\n\v\f\r\p{Z}\x{FEFF}]+\.[^\t\n\v\f\r\p{Z}\x{FEFF}]+$`)

// Result is the outcome of validating a set of form values.
type Result struct {
	Valid  bool
	Errors Errors
}

// Validate runs every field rule against v and collects all failures. The honeypot rule
// runs last and replaces whatever the message rule produced.
func Validate(v Values) Result {
	errs := Errors{}
	if trim(v.Name) == "" {
		errs[FieldName] = MsgName
	}
	if !emailPattern.MatchString(v.Email) {
		errs[FieldEmail] = MsgEmail
	}
	if trim(v.Subject) == "" {
		errs[FieldSubject] = MsgSubject
	}
	if utf8.RuneCountInString(trim(v.Message)) < MinMessageLength {
		errs[FieldMessage] = MsgMessage
	}
	// honeypot replaces the message error rather than adding one
	if trim(v.Company) != "" {
		errs[FieldMessage] = MsgSpamCheck
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// trim strips leading and trailing whitespace using the same set the browser's
// String.prototype.trim uses.
func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
