// # internal/transform/edit_test.go
package transform

import (
	"testing"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
)

func TestEditBufferApply(t *testing.T) {
	buf := NewEditBuffer([]byte("hello cruel world"))
	buf.Replace(6, 11, "kind")
	buf.Insert(0, ">> ")
	buf.Append("!")

	out, segs, err := buf.Apply()
	if err != nil {
		t.Fatal(err)
	}
	if out != ">> hello kind world!" {
		t.Errorf("got %q", out)
	}
	if len(segs) == 0 {
		t.Fatal("no segments")
	}
	// Segment table alternates copies and splices in output order.
	if !segs[1].Copy || segs[1].InStart != 0 {
		t.Errorf("unexpected second segment %+v", segs[1])
	}
}

func TestEditBufferOutOfOrderEdits(t *testing.T) {
	buf := NewEditBuffer([]byte("abcdef"))
	buf.Replace(4, 5, "E")
	buf.Replace(1, 2, "B")

	out, _, err := buf.Apply()
	if err != nil {
		t.Fatal(err)
	}
	if out != "aBcdEf" {
		t.Errorf("got %q", out)
	}
}

func TestEditBufferOverlapIsInternalError(t *testing.T) {
	buf := NewEditBuffer([]byte("0123456789"))
	buf.Replace(0, 5, "x")
	buf.Replace(3, 8, "y")

	_, _, err := buf.Apply()
	if !coreerrors.IsCode(err, coreerrors.CodeInternal) {
		t.Errorf("want internal error, got %v", err)
	}
}

func TestEditBufferOutOfBounds(t *testing.T) {
	buf := NewEditBuffer([]byte("short"))
	buf.Replace(2, 99, "x")

	_, _, err := buf.Apply()
	if !coreerrors.IsCode(err, coreerrors.CodeInternal) {
		t.Errorf("want internal error, got %v", err)
	}
}

func TestEditBufferNoEdits(t *testing.T) {
	buf := NewEditBuffer([]byte("unchanged"))
	if buf.Len() != 0 {
		t.Fatal("fresh buffer not empty")
	}
	out, segs, err := buf.Apply()
	if err != nil {
		t.Fatal(err)
	}
	if out != "unchanged" || len(segs) != 1 || !segs[0].Copy {
		t.Errorf("got %q, segs %+v", out, segs)
	}
}
