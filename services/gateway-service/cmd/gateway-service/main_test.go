package main

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestRegisterProxyPrefixes(t *testing.T) {
	mux := http.NewServeMux()
	hit := ""
	name := func(n string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hit = n
			w.WriteHeader(http.StatusOK)
		})
	}

	registerProxy(mux, "/api/v1/public/schedule", name("scheduling"))
	registerProxy(mux, "/api/v1/public", name("booking"))
	registerProxy(mux, "/api/v1/teams", name("billing"))

	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/public/schedule", "scheduling"},
		{"/api/v1/public/schedule?username=pro", "scheduling"},
		{"/api/v1/public/bookings", "booking"},
		{"/api/v1/public/bookings/cancel", "booking"},
		{"/api/v1/teams/checkout", "billing"},
	}
	for _, tc := range cases {
		hit = ""
		rw := httptest.NewRecorder()
		mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com"+tc.path, nil))
		if hit != tc.want {
			t.Errorf("path %s routed to %q, want %q", tc.path, hit, tc.want)
		}
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseList returned %v, want %v", got, want)
	}
	if out := parseList(""); len(out) != 0 {
		t.Fatalf("expected empty list, got %v", out)
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "Yes", " ON "} {
		if !isTruthy(v) {
			t.Errorf("expected %q to be truthy", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off"} {
		if isTruthy(v) {
			t.Errorf("expected %q to be falsy", v)
		}
	}
}

func TestOpenAPIAssetEmbedded(t *testing.T) {
	data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
	if err != nil {
		t.Fatalf("embedded openapi missing: %v", err)
	}
	if !strings.Contains(string(data), "/api/v1/public/schedule") {
		t.Fatal("openapi spec missing schedule path")
	}
}
