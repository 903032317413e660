package obs

import "testing"

func TestMetricPath(t *testing.T) {
	cases := map[string]string{
		"/metrics":               "/metrics",
		"/login":                 "/login",
		"/blog":                  "/blog",
		"/blog/hello-world":      "/blog/:slug",
		"/blog/hello-world/edit": "/blog/:slug/edit",
		"/admin/users/delete":    "/admin/users/delete",
		"/blog/slug-1755/update": "/blog/:slug/update",
	}
	for input, expected := range cases {
		if got := metricPath(input); got != expected {
			t.Fatalf("metricPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
