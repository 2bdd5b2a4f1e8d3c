package plan

import "errors"

var (
	ErrStepNotFound         = errors.New("step not found")
	ErrFieldNotFound        = errors.New("field not found")
	ErrProtectedStep        = errors.New("graphic inspection step is protected")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrEmptyFieldName       = errors.New("field name is required")
	ErrInvalidFieldType     = errors.New("invalid field type")
	ErrInvalidPhotoQuantity = errors.New("photo quantity must be between 1 and 5")
	ErrConfigMismatch       = errors.New("configuration does not match field type")
	ErrInvalidCondition     = errors.New("invalid conditional rule")
	ErrInvalidStatus        = errors.New("invalid plan status")
	ErrInvalidPermission    = errors.New("invalid permission")
	ErrEmptyTag             = errors.New("tag is empty")
	ErrEmptyPlanName        = errors.New("plan name is required")
	ErrInvalidRevision      = errors.New("revision must be positive")
	ErrUnknownCatalogEntry  = errors.New("unknown catalog entry")
	ErrAlreadyAdded         = errors.New("catalog entry already added")
	ErrNoFieldsSelected     = errors.New("select at least one field for the graphic inspection step")
	ErrSessionClosed        = errors.New("editor session already closed")
	ErrDiscarded            = errors.New("document discarded")
)

// IsValidation reports whether err is a user-correctable editing error
// rather than a lookup or storage failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrIndexOutOfRange, ErrEmptyFieldName, ErrInvalidFieldType,
		ErrInvalidPhotoQuantity, ErrConfigMismatch, ErrInvalidCondition,
		ErrInvalidStatus, ErrInvalidPermission, ErrEmptyTag, ErrNoFieldsSelected,
		ErrUnknownCatalogEntry, ErrEmptyPlanName, ErrInvalidRevision,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
