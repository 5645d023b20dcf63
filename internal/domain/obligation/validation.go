package obligation

import "strings"

// MaxTitleLength bounds template titles.
const MaxTitleLength = 200

// ValidateCreateInput validates fields required to create a template.
func ValidateCreateInput(req CreateRequest) error {
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	return ValidateRecurrence(req.Recurrence)
}

// ValidateUpdateInput validates the fields present in an update.
func ValidateUpdateInput(req UpdateRequest) error {
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Recurrence != nil {
		return ValidateRecurrence(req.Recurrence)
	}
	return nil
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > MaxTitleLength {
		return ErrInvalidInput
	}
	return nil
}
