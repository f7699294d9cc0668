package camera

import (
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

func workingSet(unit astro.Unit) []projector.Point {
	records := []catalog.Record{
		{Name: "Kepler-442b", RADeg: catalog.Some(285.679), DecDeg: catalog.Some(39.283),
			DistancePc: catalog.Some(370.4), EqTempK: catalog.Some(233)},
		{Name: "Proxima Cen b", RADeg: catalog.Some(217.393), DecDeg: catalog.Some(-62.676),
			DistancePc: catalog.Some(1.30119)},
	}
	return projector.Project(records, unit, projector.DefaultPolicy()).Points
}

func vecClose(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestDefaultPose(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		unit astro.Unit
		k    float64
	}{
		{astro.Parsec, 1500},
		{astro.LightYear, 1500 * 3.26156},
		{astro.AstronomicalUnit, 1500 * 206264.8},
	}
	for _, tt := range tests {
		p := DefaultPose(tt.unit, cfg)
		if p.Up != (r3.Vector{X: 0, Y: 0, Z: 1}) {
			t.Errorf("%v: up = %v", tt.unit, p.Up)
		}
		if p.Center != (r3.Vector{}) {
			t.Errorf("%v: center = %v, want origin", tt.unit, p.Center)
		}
		if !vecClose(p.Eye, r3.Vector{X: tt.k, Y: tt.k, Z: tt.k}, 1e-9*tt.k) {
			t.Errorf("%v: eye = %v, want (%v,%v,%v)", tt.unit, p.Eye, tt.k, tt.k, tt.k)
		}
		if p.Revision != PersistentView {
			t.Errorf("%v: revision = %q", tt.unit, p.Revision)
		}
	}
}

func TestTarget_NoSelection(t *testing.T) {
	res := Target(workingSet(astro.Parsec), astro.Parsec, "", DefaultConfig())
	if res.Status != NoSelection {
		t.Errorf("status = %v, want no_selection", res.Status)
	}
	if res.Pose != DefaultPose(astro.Parsec, DefaultConfig()) {
		t.Errorf("pose = %+v, want default", res.Pose)
	}
	if res.Target != nil {
		t.Error("target should be nil")
	}
}

func TestTarget_Found(t *testing.T) {
	for _, unit := range astro.Units {
		points := workingSet(unit)
		res := Target(points, unit, "Kepler-442b", DefaultConfig())
		if res.Status != Found {
			t.Fatalf("%v: status = %v, want found", unit, res.Status)
		}

		target := points[0].Pos
		offset := 3000 * unit.Factor() * 0.05
		if res.Pose.Center != target {
			t.Errorf("%v: center = %v, want %v", unit, res.Pose.Center, target)
		}
		want := r3.Vector{X: target.X + offset, Y: target.Y + offset, Z: target.Z + offset}
		if !vecClose(res.Pose.Eye, want, 1e-9*math.Max(1, want.Norm())) {
			t.Errorf("%v: eye = %v, want %v", unit, res.Pose.Eye, want)
		}
		if res.Pose.Up != Up {
			t.Errorf("%v: up = %v", unit, res.Pose.Up)
		}
		if res.Pose.Revision != "Kepler-442b" {
			t.Errorf("%v: revision = %q", unit, res.Pose.Revision)
		}
		if res.Target == nil || res.Target.Name != "Kepler-442b" {
			t.Errorf("%v: target = %+v", unit, res.Target)
		}
	}
}

func TestTarget_NotFound(t *testing.T) {
	res := Target(workingSet(astro.LightYear), astro.LightYear, "Tatooine", DefaultConfig())
	if res.Status != NotFound {
		t.Fatalf("status = %v, want not_found", res.Status)
	}
	def := DefaultPose(astro.LightYear, DefaultConfig())
	if res.Pose.Eye != def.Eye || res.Pose.Center != def.Center || res.Pose.Up != def.Up {
		t.Errorf("pose = %+v, want default %+v", res.Pose, def)
	}
	if res.Target != nil {
		t.Error("target should be nil")
	}
	if msg := res.Message(astro.LightYear); msg != "'Tatooine' not found in the current working set" {
		t.Errorf("message = %q", msg)
	}
}

func TestTarget_EmptyWorkingSet(t *testing.T) {
	res := Target(nil, astro.Parsec, "Kepler-442b", DefaultConfig())
	if res.Status != NotFound {
		t.Errorf("status = %v, want not_found", res.Status)
	}
}

func TestTarget_StableRevision(t *testing.T) {
	points := workingSet(astro.Parsec)
	a := Target(points, astro.Parsec, "Proxima Cen b", DefaultConfig())
	b := Target(points, astro.Parsec, "Proxima Cen b", DefaultConfig())
	if a.Pose.Revision != b.Pose.Revision {
		t.Errorf("revisions differ: %q vs %q", a.Pose.Revision, b.Pose.Revision)
	}
	if a.Pose != b.Pose {
		t.Errorf("poses differ: %+v vs %+v", a.Pose, b.Pose)
	}

	c := Target(points, astro.Parsec, "Kepler-442b", DefaultConfig())
	if c.Pose.Revision == a.Pose.Revision {
		t.Error("changing selection should change the revision")
	}

	none1 := Target(points, astro.Parsec, "", DefaultConfig())
	none2 := Target(points, astro.LightYear, "", DefaultConfig())
	if none1.Pose.Revision != none2.Pose.Revision {
		t.Error("no-selection revision should be stable")
	}
}

func TestAxisRange(t *testing.T) {
	cfg := DefaultConfig()
	if got := AxisRange(astro.Parsec, cfg); got != 3000 {
		t.Errorf("AxisRange(pc) = %v", got)
	}
	if got := AxisRange(astro.LightYear, cfg); math.Abs(got-3000*3.26156) > 1e-9 {
		t.Errorf("AxisRange(ly) = %v", got)
	}
}

func TestResultMessage(t *testing.T) {
	res := Target(workingSet(astro.Parsec), astro.Parsec, "Kepler-442b", DefaultConfig())
	msg := res.Message(astro.Parsec)
	for _, s := range []string{"Kepler-442b", "370.40 pc", "233 K"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q missing %q", msg, s)
		}
	}

	res = Target(workingSet(astro.Parsec), astro.Parsec, "Proxima Cen b", DefaultConfig())
	if msg := res.Message(astro.Parsec); !strings.Contains(msg, projector.NotAvailable) {
		t.Errorf("message %q should report missing temperature", msg)
	}

	if msg := (Result{Status: NoSelection}).Message(astro.Parsec); msg == "" {
		t.Error("no-selection message empty")
	}
}
