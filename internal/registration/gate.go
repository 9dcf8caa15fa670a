package registration

// The submit and create gates are independent: a visitor can be blocked from
// creating an organization (already matched) while still able to submit, and
// vice versa early in the flow. Both are pure functions of the current field
// and resolver state, recomputed by the driver on every relevant change.

// CreateDisabled reports whether the create-organization action is blocked:
// no email yet, an organization already attached, or the automatic email
// lookup has not completed. The last clause prevents creating an organization
// before the directory had a chance to match the email.
func CreateDisabled(f *Fields, r *Resolver) bool {
	return f.Value(FieldEmail) == "" ||
		r.OrganizationID() != "" ||
		!r.EmailLookupAttempted()
}

// SubmitDisabled reports whether submission is blocked: last name, email, and
// a resolved organization id are all required.
func SubmitDisabled(f *Fields, r *Resolver) bool {
	return f.Value(FieldLastName) == "" ||
		f.Value(FieldEmail) == "" ||
		r.OrganizationID() == ""
}
