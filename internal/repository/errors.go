package repository

// Err is a simple string error helper.
type Err string

func (e Err) Error() string { return string(e) }

var (
	ErrNotFound           = Err("record not found")
	ErrConflict           = Err("record is not in the expected state")
	ErrDuplicate          = Err("record already exists")
	ErrInsufficientPoints = Err("cached points do not cover the debit")
)
