package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsTransientExplicit(t *testing.T) {
	err := NewTransientError(errors.New("rate limited"), 429)
	if !IsTransient(err) {
		t.Fatal("explicit TransientError must be transient")
	}
}

func TestIsTransientWrapped(t *testing.T) {
	inner := NewTransientError(errors.New("upstream 503"), 503)
	wrapped := fmt.Errorf("search failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Fatal("TransientError must be detected through wrapping")
	}

	erisWrapped := eris.Wrap(inner, "jina: search")
	if !IsTransient(erisWrapped) {
		t.Fatal("TransientError must be detected through eris chains")
	}
}

func TestIsTransientPermanentWins(t *testing.T) {
	err := NewPermanentError(errors.New("bad query"), 400)
	if IsTransient(err) {
		t.Fatal("PermanentError must never be transient")
	}
	if !IsPermanent(err) {
		t.Fatal("IsPermanent must detect PermanentError")
	}

	wrapped := eris.Wrap(err, "jina: search")
	if IsTransient(wrapped) || !IsPermanent(wrapped) {
		t.Fatal("classification must survive wrapping")
	}
}

func TestIsTransientStringHeuristics(t *testing.T) {
	cases := []string{
		"read tcp: connection reset by peer",
		"dial tcp: i/o timeout",
		"lookup s.jina.ai: no such host",
	}
	for _, msg := range cases {
		if !IsTransient(errors.New(msg)) {
			t.Fatalf("%q should be transient", msg)
		}
	}

	if IsTransient(errors.New("invalid request payload")) {
		t.Fatal("generic error should not be transient")
	}
	if IsTransient(nil) {
		t.Fatal("nil is not transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Fatalf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Fatalf("status %d should not be transient", code)
		}
	}
}
