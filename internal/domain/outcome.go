package domain

// Outcome is the result of an operation that can decline without failing.
// Clients only see Success(); the finer value is kept for logs and tests.
type Outcome string

const (
	// OutcomeOK means the requested state now holds.
	OutcomeOK Outcome = "ok"
	// OutcomeAlreadyExists means the membership was already present.
	OutcomeAlreadyExists Outcome = "already_exists"
	// OutcomeNotOwner means the caller did not create the joke.
	OutcomeNotOwner Outcome = "not_owner"
	// OutcomeNotMember means there was nothing to remove. Removal is
	// idempotent, so this still counts as success.
	OutcomeNotMember Outcome = "not_member"
)

// Success projects the outcome onto the {success: bool} wire shape.
func (o Outcome) Success() bool {
	return o == OutcomeOK || o == OutcomeNotMember
}
