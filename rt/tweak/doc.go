// Package tweak provides a typed registry of runtime-adjustable parameters
// ("tweaks") with default/override layering.
//
// # Model
//
//   - Kind is a closed set: bool, int, float32, float64, color.
//   - Value is a tagged union of Kind and payload. It is built only through
//     Bool / Int / Float32 / Float64 / ColorValue (or ValueOf), so a value's
//     tag always matches its payload.
//   - Definition is an immutable, validated descriptor: key, display name,
//     default, and optional min/max/step for numeric kinds.
//   - Collection is a titled group of definitions in insertion order.
//   - Store owns the registered collections and the override mapping.
//
// # Quick start
//
//	layout := tweak.NewCollection("Layout").MustAdd(
//		tweak.MustDefinition("layout.cornerRadius", tweak.Int(4),
//			tweak.WithBounds(tweak.Int(0), tweak.Int(20))),
//	)
//	st := tweak.New()
//	st.MustRegister(layout)
//
//	_ = st.SetOverride("layout.cornerRadius", tweak.Int(8))
//	v, _ := st.Value("layout.cornerRadius") // 8
//	_ = st.Reset()                           // back to 4
//
// # Errors
//
// Construction and registration errors (ErrConfiguration, ErrDuplicateKey)
// indicate programming mistakes and are meant to halt startup. ErrUnknownKey
// is a programmer error too and is never defaulted silently. Override errors
// (ErrTypeMismatch, ErrOutOfBounds) are recoverable: the store is left
// unchanged and the caller can reject the edit.
//
// # Writes, observers and persistence
//
// All write APIs (Register / SetOverride / ClearOverride / Reset /
// LoadOverrides) are serialized. Each write commits the in-memory change,
// then calls the Persister (if any), then notifies observers synchronously.
// Reset fires a single EventReset no matter how many overrides it drops.
//
// Readers never observe a partially applied write, and are not blocked
// while observers run, so observers may read the store. Observers must not
// call write APIs; doing so returns ErrReentrantWrite. Observer panics are
// recovered and logged via the store logger.
//
// A persister failure does not roll back memory. The write API returns an
// error wrapping ErrPersist.
//
// # Key rules
//
// Keys must be non-empty UTF-8 without control characters. Spaces, '/' and
// non-ASCII letters are allowed.
// Keys are case-sensitive and unique across the whole store.
package tweak
