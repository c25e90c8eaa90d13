package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingFilter(name string, trace *[]string, outcome Outcome, err error) Filter {
	return Named(name, func(x *Exchange) (Outcome, error) {
		*trace = append(*trace, name)
		return outcome, err
	})
}

func terminal(trace *[]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*trace = append(*trace, "terminal")
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestChain_RunsInOrder(t *testing.T) {
	var trace []string
	c := New(func(http.ResponseWriter, *http.Request, error) { t.Fatal("unexpected error") },
		recordingFilter("a", &trace, Continue, nil),
		recordingFilter("b", &trace, Continue, nil),
	).Use(recordingFilter("c", &trace, Continue, nil))

	rec := httptest.NewRecorder()
	c.Then(terminal(&trace)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c", "terminal"}, trace)
	assert.Equal(t, []string{"a", "b", "c"}, c.Names())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChain_HandledStops(t *testing.T) {
	var trace []string
	c := New(func(http.ResponseWriter, *http.Request, error) { t.Fatal("unexpected error") },
		recordingFilter("a", &trace, Handled, nil),
		recordingFilter("b", &trace, Continue, nil),
	)

	c.Then(terminal(&trace)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a"}, trace)
}

func TestChain_ErrorGoesToErrorStage(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	var got error
	c := New(func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	},
		recordingFilter("a", &trace, Continue, nil),
		recordingFilter("b", &trace, Continue, boom),
		recordingFilter("c", &trace, Continue, nil),
	)

	rec := httptest.NewRecorder()
	c.Then(terminal(&trace)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b"}, trace)
	assert.Same(t, boom, got)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestChain_RecoversPanic(t *testing.T) {
	var got error
	c := New(func(w http.ResponseWriter, r *http.Request, err error) { got = err })

	h := c.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]int
		m["x"] = 1
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var pe *PanicError
	require.ErrorAs(t, got, &pe)
	assert.NotEmpty(t, pe.StackTrace())
	assert.Contains(t, pe.Error(), "assignment to entry in nil map")
}

func TestChain_DeferredRunLIFO(t *testing.T) {
	var trace []string
	c := New(nil,
		Named("a", func(x *Exchange) (Outcome, error) {
			x.Defer(func() { trace = append(trace, "undo a") })
			return Continue, nil
		}),
		Named("b", func(x *Exchange) (Outcome, error) {
			x.Defer(func() { trace = append(trace, "undo b") })
			return Continue, nil
		}),
	)

	c.Then(terminal(&trace)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"terminal", "undo b", "undo a"}, trace)
}

func TestChain_FilterReplacesWriter(t *testing.T) {
	c := New(nil, Named("wrap", func(x *Exchange) (Outcome, error) {
		x.Writer.Header().Set("X-Wrapped", "yes")
		x.Request = x.Request.WithContext(x.Request.Context())
		x.Request.Header.Set("X-Seen", "1")
		return Continue, nil
	}))

	var seen string
	rec := httptest.NewRecorder()
	c.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Seen")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "1", seen)
	assert.Equal(t, "yes", rec.Header().Get("X-Wrapped"))
}

func TestFromMiddleware(t *testing.T) {
	passThrough := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Set("X-From-Middleware", "ok")
			next.ServeHTTP(w, r)
		})
	}
	shortCircuit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}

	t.Run("continues when next is called", func(t *testing.T) {
		x := &Exchange{Writer: httptest.NewRecorder(), Request: httptest.NewRequest(http.MethodGet, "/", nil)}

		outcome, err := FromMiddleware("pass", passThrough).Apply(x)

		require.NoError(t, err)
		assert.Equal(t, Continue, outcome)
		assert.Equal(t, "ok", x.Request.Header.Get("X-From-Middleware"))
	})

	t.Run("handled when next is skipped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		x := &Exchange{Writer: rec, Request: httptest.NewRequest(http.MethodOptions, "/", nil)}

		outcome, err := FromMiddleware("stop", shortCircuit).Apply(x)

		require.NoError(t, err)
		assert.Equal(t, Handled, outcome)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
