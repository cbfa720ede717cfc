package domain

import "errors"

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrVolumeNotFound        = errors.New("volume not found")
	ErrBorrowerNotFound      = errors.New("borrower not found")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrNotLoanable           = errors.New("volume is not loanable")
	ErrAlreadyLoaned         = errors.New("volume is already loaned")
	ErrAlreadyReturned       = errors.New("loan already returned")
	ErrCannotExtendReturned  = errors.New("cannot extend a returned loan")
	ErrExtensionLimitReached = errors.New("extension limit reached")
	ErrVolumeOnLoan          = errors.New("volume is currently on loan")
	ErrInvalidCondition      = errors.New("invalid condition")
	ErrEmptyUpdate           = errors.New("no fields to update")

	ErrTitleNotFound      = errors.New("title not found")
	ErrGroupNotFound      = errors.New("borrower group not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrNameRequired       = errors.New("name is required")
	ErrBarcodeRequired    = errors.New("barcode is required")
	ErrInvalidDuration    = errors.New("loan duration must be positive")
	ErrBarcodeTaken       = errors.New("barcode already in use")
	ErrCopyNumberTaken    = errors.New("copy number already in use for title")
	ErrGroupAlreadyExists = errors.New("borrower group already exists")
)

// Kind groups domain errors by how callers should react to them.
type Kind int

const (
	// KindInternal covers store failures and anything not classified below.
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindLimit
	KindConflict
)

var kinds = map[error]Kind{
	ErrVolumeNotFound:        KindNotFound,
	ErrBorrowerNotFound:      KindNotFound,
	ErrLoanNotFound:          KindNotFound,
	ErrTitleNotFound:         KindNotFound,
	ErrGroupNotFound:         KindNotFound,
	ErrInvalidID:             KindValidation,
	ErrNotLoanable:           KindValidation,
	ErrAlreadyLoaned:         KindValidation,
	ErrAlreadyReturned:       KindValidation,
	ErrCannotExtendReturned:  KindValidation,
	ErrInvalidCondition:      KindValidation,
	ErrEmptyUpdate:           KindValidation,
	ErrTitleRequired:         KindValidation,
	ErrNameRequired:          KindValidation,
	ErrBarcodeRequired:       KindValidation,
	ErrInvalidDuration:       KindValidation,
	ErrExtensionLimitReached: KindLimit,
	ErrVolumeOnLoan:          KindConflict,
	ErrBarcodeTaken:          KindConflict,
	ErrCopyNumberTaken:       KindConflict,
	ErrGroupAlreadyExists:    KindConflict,
}

// KindOf reports the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}
