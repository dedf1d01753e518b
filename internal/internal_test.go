package internal

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 0},
		{-1, 4, 3},
		{-4, 4, 0},
		{-5, 4, 3},
		{9, 4, 1},
		{-1, 1, 0},
	}
	for _, test := range tests {
		if got := Wrap(test.i, test.n); got != test.want {
			t.Errorf("Wrap(%v, %v) = %v, want %v", test.i, test.n, got, test.want)
		}
	}
}

func TestComputeNofBatches(t *testing.T) {
	if n := ComputeNofBatches(0, 0, 4); n != 1 {
		t.Errorf("empty range: got %v batches", n)
	}
	if n := ComputeNofBatches(0, 3, 8); n != 3 {
		t.Errorf("small range: got %v batches", n)
	}
	if n := ComputeNofBatches(0, 1000, 0); n != 2*runtime.GOMAXPROCS(0) && n != 1000 {
		t.Errorf("default: got %v batches", n)
	}
	defer func() {
		if recover() == nil {
			t.Error("negative batch count did not panic")
		}
	}()
	ComputeNofBatches(0, 10, -1)
}

func TestPanicError(t *testing.T) {
	if PanicError(nil) != nil {
		t.Error("nil panic produced an error")
	}
	err := PanicError(errors.New("boom"))
	if err == nil || !strings.HasPrefix(err.Error(), "boom") {
		t.Errorf("unexpected error %v", err)
	}
	err = PanicError("plain")
	if err == nil || !strings.Contains(err.Error(), "rethrown at") {
		t.Errorf("missing stack in %v", err)
	}
}
