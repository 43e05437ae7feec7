package admin_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/evan-idocoding/tweakkit/admin"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

func ExampleNew_healthz() {
	h := admin.New(
		admin.EnableHealthz(admin.HealthzSpec{Guard: admin.AllowAll()}),
	)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://admin.test/healthz", nil)
	h.ServeHTTP(rr, req)

	fmt.Print(rr.Body.String())

	// Output:
	// ok
}

func ExampleEnableTweaks() {
	st := tweak.New()
	st.MustRegister(tweak.NewCollection("Layout").MustAdd(
		tweak.MustDefinition("layout.cornerRadius", tweak.Int(4)),
	))
	h := admin.New(admin.EnableTweaks(admin.TweaksSpec{
		Store:      st,
		ReadGuard:  admin.AllowAll(),
		WriteGuard: admin.Tokens([]string{"t"}),
	}))

	req := httptest.NewRequest(http.MethodPost, "http://admin.test/tweaks/set?key=layout.cornerRadius&value=8", nil)
	rr1 := httptest.NewRecorder()
	h.ServeHTTP(rr1, req)

	req.Header.Set(admin.DefaultTokenHeader, "t")
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)

	v, _ := st.Value("layout.cornerRadius")
	fmt.Println(rr1.Code, rr2.Code, v)

	// Output:
	// 403 200 8
}
