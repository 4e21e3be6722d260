package signin

// User-facing messages shared by the authentication collaborators.
const (
	MessageInvalidCredentials = "Invalid credentials"
	MessageAccountDisabled    = "This account has been disabled"
	MessageTooManyAttempts    = "Too many attempts. Please try again later."
)
