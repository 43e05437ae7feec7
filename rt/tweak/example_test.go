package tweak_test

import (
	"errors"
	"fmt"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

func Example_basic() {
	layout := tweak.NewCollection("Layout").MustAdd(
		tweak.MustDefinition("cornerRadius", tweak.Int(4),
			tweak.WithDisplayName("Corner radius"),
			tweak.WithBounds(tweak.Int(0), tweak.Int(20))),
	)
	st := tweak.New()
	st.MustRegister(layout)

	err := st.SetOverride("cornerRadius", tweak.Int(25))
	fmt.Println(errors.Is(err, tweak.ErrOutOfBounds))

	v, _ := st.Value("cornerRadius")
	fmt.Println(v)

	_ = st.SetOverride("cornerRadius", tweak.Int(8))
	v, _ = st.Value("cornerRadius")
	fmt.Println(v)

	_ = st.Reset()
	v, _ = st.Value("cornerRadius")
	fmt.Println(v)

	// Output:
	// true
	// 4
	// 8
	// 4
}

func ExampleStore_Subscribe() {
	st := tweak.New()
	st.MustRegister(tweak.NewCollection("Debug").MustAdd(
		tweak.MustDefinition("debug.grid", tweak.Bool(false)),
		tweak.MustDefinition("debug.tint", tweak.ColorValue(tweak.RGB(0xff, 0, 0))),
	))

	cancel := st.Subscribe(tweak.ObserverFunc(func(e tweak.Event) {
		switch e.Kind {
		case tweak.EventReset:
			fmt.Println("reset", e.Keys)
		default:
			fmt.Println(e.Kind, e.Key, e.Value)
		}
	}))
	defer cancel()

	_ = st.SetFromString("debug.grid", "on")
	_ = st.SetFromString("debug.tint", "#00ff00")
	_ = st.Reset()

	// Output:
	// set debug.grid true
	// set debug.tint #00ff00
	// reset [debug.grid debug.tint]
}

func ExampleStore_ExportOverridesJSON() {
	st := tweak.New()
	st.MustRegister(tweak.NewCollection("c").MustAdd(tweak.MustDefinition("speed", tweak.Float64(1))))
	_ = st.Set("speed", 1.5)

	b, _ := st.ExportOverridesJSON()
	fmt.Println(string(b))

	// Output:
	// [{"key":"speed","kind":"float64","value":"1.5"}]
}
