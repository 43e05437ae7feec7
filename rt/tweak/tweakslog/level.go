package tweakslog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

// LevelDefinition returns an int tweak for a slog level, bounded to
// [debug, error] with a step of 4 (one named level).
//
// defaultLevel is rounded to one of {debug,info,warn,error}.
func LevelDefinition(key string, defaultLevel slog.Level, opts ...tweak.DefinitionOption) (tweak.Definition, error) {
	base := []tweak.DefinitionOption{
		tweak.WithDisplayName("Log level"),
		tweak.WithBounds(tweak.Int(int64(slog.LevelDebug)), tweak.Int(int64(slog.LevelError))),
		tweak.WithStep(tweak.Int(4)),
	}
	base = append(base, opts...)
	return tweak.NewDefinition(key, tweak.Int(int64(roundLevel(defaultLevel))), base...)
}

// BindLevel keeps lv in sync with the int tweak at key.
//
// lv is set from the current value immediately, then on every event that may
// change key (set, clear, reset, load). The returned cancel unsubscribes.
func BindLevel(st *tweak.Store, key string, lv *slog.LevelVar) (cancel func(), err error) {
	if st == nil || lv == nil {
		return nil, fmt.Errorf("%w: nil store or LevelVar", tweak.ErrConfiguration)
	}
	d, ok := st.Definition(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", tweak.ErrUnknownKey, key)
	}
	if d.Kind() != tweak.KindInt {
		return nil, fmt.Errorf("%w: %q is %s, want int", tweak.ErrTypeMismatch, key, d.Kind())
	}

	sync := func(v tweak.Value) {
		if n, ok := v.AsInt(); ok {
			lv.Set(roundLevel(slog.Level(n)))
		}
	}
	cur, err := st.Value(key)
	if err != nil {
		return nil, err
	}
	sync(cur)

	return st.Subscribe(tweak.ObserverFunc(func(e tweak.Event) {
		switch e.Kind {
		case tweak.EventSet, tweak.EventClear:
			if e.Key == key {
				sync(e.Value)
			}
		case tweak.EventReset, tweak.EventLoad:
			if slices.Contains(e.Keys, key) {
				if v, err := st.Value(key); err == nil {
					sync(v)
				}
			}
		}
	})), nil
}

// Observer returns an observer that logs each event on l at Info level.
// A nil l uses slog.Default().
func Observer(l *slog.Logger) tweak.Observer {
	return tweak.ObserverFunc(func(e tweak.Event) {
		lg := l
		if lg == nil {
			lg = slog.Default()
		}
		attrs := []slog.Attr{slog.String("event", e.Kind.String())}
		switch e.Kind {
		case tweak.EventSet, tweak.EventClear:
			attrs = append(attrs,
				slog.String("key", e.Key),
				slog.String("kind", e.Value.Kind().String()),
				slog.String("value", e.Value.String()))
		default:
			attrs = append(attrs, slog.Int("keys", len(e.Keys)))
		}
		lg.LogAttrs(context.Background(), slog.LevelInfo, "tweak changed", attrs...)
	})
}

func roundLevel(l slog.Level) slog.Level {
	// slog: Debug=-4, Info=0, Warn=4, Error=8
	switch {
	case l < slog.LevelInfo:
		return slog.LevelDebug
	case l < slog.LevelWarn:
		return slog.LevelInfo
	case l < slog.LevelError:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
