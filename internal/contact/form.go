package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Field names a contact form input. Values match the HTML input names.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldSubject Field = "subject"
	FieldMessage Field = "message"
	// FieldCompany is the honeypot. It is hidden from people and must stay empty.
	FieldCompany Field = "company"
)

// Fields lists every form input in render order.
var Fields = []Field{FieldName, FieldEmail, FieldSubject, FieldMessage, FieldCompany}

// Status tracks the submission lifecycle.
type Status string

const (
	StatusNone       Status = ""
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Values holds the raw, untrimmed field contents.
type Values struct {
	Name    string
	Email   string
	Subject string
	Message string
	Company string
}

// Get returns the value of f, or "" for unknown fields.
func (v Values) Get(f Field) string {
	switch f {
	case FieldName:
		return v.Name
	case FieldEmail:
		return v.Email
	case FieldSubject:
		return v.Subject
	case FieldMessage:
		return v.Message
	case FieldCompany:
		return v.Company
	}
	return ""
}

func (v *Values) set(f Field, value string) bool {
	switch f {
	case FieldName:
		v.Name = value
	case FieldEmail:
		v.Email = value
	case FieldSubject:
		v.Subject = value
	case FieldMessage:
		v.Message = value
	case FieldCompany:
		v.Company = value
	default:
		return false
	}
	return true
}

// Payload builds the wire message: trimmed fields, honeypot left out.
func (v Values) Payload() Message {
	return Message{
		Name:    trim(v.Name),
		Email:   trim(v.Email),
		Subject: trim(v.Subject),
		Message: trim(v.Message),
	}
}

// Errors maps a field to its validation message. Absent fields are valid.
type Errors map[Field]string

// Has reports whether f has an error.
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Snapshot is an immutable copy of the form state handed to renderers and observers.
type Snapshot struct {
	Values Values
	Errors Errors
	Status Status
	// SubmitDisabled is true while a submission is in flight.
	SubmitDisabled bool
}

var (
	// ErrUnknownField is returned by UpdateField for names outside Fields.
	ErrUnknownField = errors.New("contact: unknown field")
	// ErrSubmissionInFlight is returned when Submit is called while another submission runs.
	ErrSubmissionInFlight = errors.New("contact: submission already in flight")
)

// ValidationError reports client-side validation failures. No request was sent.
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contact: %d invalid field(s)", len(e.Errors))
}

// SubmissionError wraps a failed delivery. Form values were kept for a retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("contact: submit failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Form owns the state of one contact form and drives its submission lifecycle.
type Form struct {
	sender Sender
	logger *zap.Logger

	mu        sync.Mutex
	values    Values
	errors    Errors
	status    Status
	observers map[int]func(Snapshot)
	nextObs   int
}

// Option customises a Form.
type Option func(*Form)

// WithLogger sets the logger used to report failed submissions.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithValues seeds the form with existing field contents.
func WithValues(v Values) Option {
	return func(f *Form) {
		f.values = v
	}
}

// NewForm returns an empty form that delivers messages through sender.
func NewForm(sender Sender, opts ...Option) *Form {
	f := &Form{
		sender:    sender,
		logger:    zap.NewNop(),
		errors:    Errors{},
		observers: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UpdateField sets one field and clears its error. Length is not checked here.
func (f *Form) UpdateField(name Field, value string) error {
	f.mu.Lock()
	if !f.values.set(name, value) {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	delete(f.errors, name)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	return nil
}

// Validate checks the current values without storing the result.
func (f *Form) Validate() Result {
	f.mu.Lock()
	v := f.values
	f.mu.Unlock()
	return Validate(v)
}

// Submit validates the form and, when valid, delivers the trimmed message.
//
// Validation failures are stored on the form and returned as *ValidationError without
// any network activity. Delivery failures set StatusError, keep the values, and return
// *SubmissionError. On success the fields are cleared and the status is StatusSuccess.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.status == StatusSubmitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	f.status = StatusNone
	res := Validate(f.values)
	f.errors = res.Errors
	if !res.Valid {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		return &ValidationError{Errors: res.Errors.clone()}
	}
	f.status = StatusSubmitting
	msg := f.values.Payload()
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	err := f.send(ctx, msg)

	f.mu.Lock()
	if err != nil {
		f.status = StatusError
	} else {
		f.values = Values{}
		f.errors = Errors{}
		f.status = StatusSuccess
	}
	snap = f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	if err != nil {
		f.logger.Warn("contact submit failed", zap.Error(err))
		return &SubmissionError{Err: err}
	}
	return nil
}

func (f *Form) send(ctx context.Context, msg Message) (err error) {
	if f.sender == nil {
		return errors.New("contact: no sender configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("contact: sender panic: %v", r)
		}
	}()
	return f.sender.Send(ctx, msg)
}

// Snapshot returns a copy of the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (f *Form) Subscribe(fn func(Snapshot)) func() {
	f.mu.Lock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *Form) snapshotLocked() Snapshot {
	return Snapshot{
		Values:         f.values,
		Errors:         f.errors.clone(),
		Status:         f.status,
		SubmitDisabled: f.status == StatusSubmitting,
	}
}

func (f *Form) notify(s Snapshot) {
	f.mu.Lock()
	fns := make([]func(Snapshot), 0, len(f.observers))
	for i := 0; i < f.nextObs; i++ {
		if fn, ok := f.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
