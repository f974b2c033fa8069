package domain

import "fmt"

// FormMode tells whether a form creates a new user or edits an existing one.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

func (m FormMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Editable form fields accepted by UserForm.Set.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldUsername = "username"
	FieldStreet   = "street"
	FieldCity     = "city"
	FieldCompany  = "company"
	FieldWebsite  = "website"
)

// UserForm is the working copy of a record being created or edited.
// Every change returns a new form; the receiver is never modified.
type UserForm struct {
	mode   FormMode
	record UserRecord
}

// NewUserForm seeds a form from seed. A seed without an ID opens the form in
// create mode and its username is derived from the name.
func NewUserForm(seed UserRecord) UserForm {
	f := UserForm{mode: ModeEdit, record: seed}
	if seed.IsNew() {
		f.mode = ModeCreate
	}
	return f.derive()
}

func (f UserForm) Mode() FormMode {
	return f.mode
}

// Record returns a copy of the working record.
func (f UserForm) Record() UserRecord {
	return f.record
}

// Set returns a form with field replaced by value.
func (f UserForm) Set(field, value string) (UserForm, error) {
	next := f
	switch field {
	case FieldName:
		next.record.Name = value
	case FieldEmail:
		next.record.Email = value
	case FieldPhone:
		next.record.Phone = value
	case FieldStreet:
		next.record.Address.Street = value
	case FieldCity:
		next.record.Address.City = value
	case FieldCompany:
		next.record.Company.Name = value
	case FieldWebsite:
		next.record.Website = value
	case FieldUsername:
		return f, fmt.Errorf("set %q: %w", field, ErrReadOnlyField)
	default:
		return f, fmt.Errorf("set %q: %w", field, ErrUnknownField)
	}
	return next.derive(), nil
}

// Merge returns a form carrying the editable fields of input, the same set
// Set accepts. Everything else, including the ID, username, suite, zipcode,
// geo and company catch phrase, stays as seeded.
func (f UserForm) Merge(input UserRecord) UserForm {
	next := f
	next.record.Name = input.Name
	next.record.Email = input.Email
	next.record.Phone = input.Phone
	next.record.Address.Street = input.Address.Street
	next.record.Address.City = input.Address.City
	next.record.Company.Name = input.Company.Name
	next.record.Website = input.Website
	return next.derive()
}

// Submit returns the working record together with its validation result.
// The record may only be sent upstream when the errors are empty.
func (f UserForm) Submit() (UserRecord, FieldErrors) {
	return f.record, Validate(f.record)
}

// derive recomputes the username in create mode.
func (f UserForm) derive() UserForm {
	if f.mode == ModeCreate {
		f.record.Username = DeriveUsername(f.record.Name)
	}
	return f
}
