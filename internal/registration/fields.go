// Package registration implements the account-resolution workflow behind the
// self-registration form: the registrant's fields, the organization resolver
// state machine, the submit-eligibility gates, and the submission lifecycle.
// The package is UI-agnostic; drivers own all timers and remote calls and feed
// results back through the Apply methods.
package registration

// FieldID identifies one registrant field. The enumeration is closed: there is
// no string-keyed assignment anywhere in the workflow.
type FieldID int

const (
	FieldFirstName FieldID = iota
	FieldLastName
	FieldEmail
	FieldJobTitle
)

func (f FieldID) String() string {
	switch f {
	case FieldFirstName:
		return "firstName"
	case FieldLastName:
		return "lastName"
	case FieldEmail:
		return "email"
	case FieldJobTitle:
		return "jobTitle"
	default:
		return "unknown"
	}
}

// Registrant holds the prospective user's contact fields.
type Registrant struct {
	FirstName string
	LastName  string
	Email     string
	JobTitle  string
}

// Validator reports whether a field value is acceptable. Validators are
// supplied by the UI layer; Fields only aggregates their verdicts.
type Validator func(value string) bool

// Fields stores the registrant's form fields and their validators.
type Fields struct {
	registrant Registrant
	validators map[FieldID]Validator
}

// NewFields creates an empty field store.
func NewFields() *Fields {
	return &Fields{validators: make(map[FieldID]Validator)}
}

// Set updates exactly one field and reports whether the email value changed.
// Callers must reset their resolver when it did; Set itself has no other
// cross-field side effects.
func (f *Fields) Set(id FieldID, value string) (emailChanged bool) {
	switch id {
	case FieldFirstName:
		f.registrant.FirstName = value
	case FieldLastName:
		f.registrant.LastName = value
	case FieldEmail:
		emailChanged = value != f.registrant.Email
		f.registrant.Email = value
	case FieldJobTitle:
		f.registrant.JobTitle = value
	}
	return emailChanged
}

// Value returns the current value of one field.
func (f *Fields) Value(id FieldID) string {
	switch id {
	case FieldFirstName:
		return f.registrant.FirstName
	case FieldLastName:
		return f.registrant.LastName
	case FieldEmail:
		return f.registrant.Email
	case FieldJobTitle:
		return f.registrant.JobTitle
	default:
		return ""
	}
}

// Registrant returns a copy of the current field values.
func (f *Fields) Registrant() Registrant {
	return f.registrant
}

// RegisterValidator attaches a validity reporter to a field, replacing any
// previous one.
func (f *Fields) RegisterValidator(id FieldID, v Validator) {
	f.validators[id] = v
}

// Validate returns true only if every registered validator passes. It is a
// pass-through aggregation; fields without a validator are not checked.
func (f *Fields) Validate() bool {
	allValid := true
	for id, v := range f.validators {
		if !v(f.Value(id)) {
			allValid = false
		}
	}
	return allValid
}
