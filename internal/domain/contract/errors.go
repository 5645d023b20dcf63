package contract

import "errors"

var (
	// ErrContractNotFound indicates the contract doesn't exist or was deleted.
	ErrContractNotFound = errors.New("contract not found")
	// ErrAccessDenied indicates the caller is not a participant.
	ErrAccessDenied = errors.New("access denied: not a contract participant")
	// ErrSoloNotAllowed indicates a single-participant contract cannot be activated.
	ErrSoloNotAllowed = errors.New("single-participant contracts are disabled")
	// ErrInvalidInput indicates invalid contract input.
	ErrInvalidInput = errors.New("invalid contract input")
)

// CheckAccess returns ErrAccessDenied unless userID participates in c.
func CheckAccess(c *Contract, userID string) error {
	if c == nil {
		return ErrContractNotFound
	}
	if !c.HasParticipant(userID) {
		return ErrAccessDenied
	}
	return nil
}
