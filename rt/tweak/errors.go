package tweak

import "errors"

var (
	// ErrConfiguration indicates a definition is invalid at construction time.
	ErrConfiguration = errors.New("tweak: invalid configuration")
	// ErrDuplicateKey indicates a key (or collection title) is registered more than once.
	ErrDuplicateKey = errors.New("tweak: duplicate key")
	// ErrUnknownKey indicates the key is not registered.
	ErrUnknownKey = errors.New("tweak: unknown key")
	// ErrTypeMismatch indicates a value's kind does not match the tweak's kind.
	ErrTypeMismatch = errors.New("tweak: type mismatch")
	// ErrOutOfBounds indicates a numeric value falls outside the tweak's [min, max].
	ErrOutOfBounds = errors.New("tweak: out of bounds")

	// ErrReentrantWrite indicates a write API is called from an observer.
	ErrReentrantWrite = errors.New("tweak: re-entrant write in observer")
	// ErrPersist indicates the in-memory write succeeded but the persister failed.
	ErrPersist = errors.New("tweak: persist failed")
)
