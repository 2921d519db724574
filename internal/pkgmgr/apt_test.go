package pkgmgr

import (
	"context"
	"testing"

	"github.com/openvdb-build/vdbci/internal/proc"
)

func TestInstall(t *testing.T) {
	rec := proc.NewRecorder()
	a := NewApt(rec)

	if err := a.Install(context.Background(), "libboost-all-dev", "libtbb-dev"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	want := "sudo apt-get install -y libboost-all-dev libtbb-dev"
	if got := rec.Calls[0].String(); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestUpdate(t *testing.T) {
	rec := proc.NewRecorder()
	if err := NewApt(rec).Update(context.Background()); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got, want := rec.Calls[0].String(), "sudo apt-get update -qq"; got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}
