package domain

// Reserved control tokens. They are recognised as input in the name-collection
// steps and can never be recorded as a person's name.
const (
	TokenDone   = "DONE"
	TokenNone   = "NONE"
	TokenRemove = "REMOVE"
)

// Commands accepted in every step.
const (
	CommandStart = "/start"
	CommandExit  = "/exit"
)

// IsControlToken reports whether s is one of the reserved tokens.
func IsControlToken(s string) bool {
	return s == TokenDone || s == TokenNone || s == TokenRemove
}
