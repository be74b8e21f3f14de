package receiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Load([]Data{
		{ModuleName: "app", ClassQualifiedName: "com.app.LoginLow", Group: "login", Priority: PriorityLow, Flag: 1},
		{ModuleName: "app", ClassQualifiedName: "com.app.LoginHigh", Group: "login", Priority: PriorityHigh, Flag: 2},
		{ModuleName: "app", ClassQualifiedName: "com.app.Logout", Group: "logout", Priority: PriorityMedium},
	})
	r.Load([]Data{
		{ModuleName: "user", ClassQualifiedName: "com.user.LoginMedium", Group: "login", Priority: PriorityMedium, Flag: 1},
		{ModuleName: "user", ClassQualifiedName: "com.user.LoginHigh2", Group: "login", Priority: PriorityHigh, Flag: 1},
	})
	return r
}

func classNames(data []Data) []string {
	var out []string
	for _, d := range data {
		out = append(out, d.ClassQualifiedName)
	}
	return out
}

func TestRegistry_Receivers(t *testing.T) {
	r := newTestRegistry()

	assert.Equal(t, []string{"login", "logout"}, r.Groups())
	assert.Equal(t, []string{
		"com.app.LoginHigh",
		"com.user.LoginHigh2",
		"com.user.LoginMedium",
		"com.app.LoginLow",
	}, classNames(r.Receivers("login", AllFlag)))
	assert.Equal(t, []string{
		"com.user.LoginHigh2",
		"com.user.LoginMedium",
		"com.app.LoginLow",
	}, classNames(r.Receivers("login", 1)))
	assert.Empty(t, r.Receivers("unknown", AllFlag))
}

func TestRegistry_Dispatch(t *testing.T) {
	r := newTestRegistry()

	var order []string
	record := func(name string, stop bool) Listener {
		return func(payload map[string]any) bool {
			order = append(order, name)
			return stop
		}
	}
	r.Bind("com.app.LoginHigh", record("high", false))
	r.Bind("com.user.LoginHigh2", record("high2", false))
	r.Bind("com.user.LoginMedium", record("medium", true))
	r.Bind("com.app.LoginLow", record("low", false))

	called := r.Dispatch("login", AllFlag, nil)
	assert.Equal(t, 3, called)
	assert.Equal(t, []string{"high", "high2", "medium"}, order)

	order = nil
	called = r.Dispatch("login", 2, map[string]any{"user": "alice"})
	assert.Equal(t, 1, called)
	assert.Equal(t, []string{"high"}, order)

	assert.Zero(t, r.Dispatch("logout", AllFlag, nil), "unbound receivers are skipped")
}

func TestRegistry_DispatchPayload(t *testing.T) {
	r := NewRegistry()
	r.Load([]Data{{ClassQualifiedName: "a.A", Group: "g"}})

	var got map[string]any
	r.Bind("a.A", func(payload map[string]any) bool {
		got = payload
		return false
	})

	r.Dispatch("g", AllFlag, map[string]any{"k": 1})
	require.NotNil(t, got)
	assert.Equal(t, 1, got["k"])
}
