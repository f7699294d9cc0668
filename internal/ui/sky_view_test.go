package ui

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

func skyManager(records ...catalog.Record) *state.Manager {
	m := state.NewManager(state.DefaultConfig())
	m.SetCatalog(records, "sky.csv", 0, nil)
	return m
}

func star(name string, ra, dec float64) catalog.Record {
	return catalog.Record{Name: name, RADeg: catalog.Some(ra), DecDeg: catalog.Some(dec),
		DistancePc: catalog.Some(10)}
}

// finishAnimation runs the pending animation to its end.
func finishAnimation(t *testing.T, m SkyModel) SkyModel {
	t.Helper()
	m.animStart = time.Now().Add(-2 * skyAnimDuration)
	m, cmd := m.Update(skyAnimMsg(time.Now()))
	if cmd != nil || m.animating {
		t.Fatal("animation should be complete")
	}
	return m
}

func TestSkyModel_DegenerateRA(t *testing.T) {
	st := skyManager(star("A", 120, -10), star("B", 120, 30), star("C", 120, 10))
	sky := NewSkyModel().SetSize(81, 24).UpdateData(st.Snapshot())

	const width, height = 81, 20
	wantY := map[string]int{"A": 19, "B": 0, "C": 10}
	for _, pt := range sky.points {
		if pt.FlatX != 0.5 {
			t.Errorf("%s FlatX = %v, want 0.5", pt.Name, pt.FlatX)
		}
		x, y, ok := sky.toScreen(pt.FlatX, pt.FlatY, width, height)
		if !ok {
			t.Fatalf("%s not on screen", pt.Name)
		}
		if x != 40 {
			t.Errorf("%s column = %d, want centre column 40", pt.Name, x)
		}
		if y != wantY[pt.Name] {
			t.Errorf("%s row = %d, want %d", pt.Name, y, wantY[pt.Name])
		}
	}

	out := sky.View()
	if !strings.Contains(out, "RA 120.0°..120.0°") {
		t.Errorf("bounds missing from view:\n%s", out)
	}
}

func TestSkyModel_SinglePointCentred(t *testing.T) {
	st := skyManager(star("Lonely b", 45, 45))
	sky := NewSkyModel().SetSize(81, 24).UpdateData(st.Snapshot())

	x, y, ok := sky.toScreen(sky.points[0].FlatX, sky.points[0].FlatY, 81, 21)
	if !ok || x != 40 || y != 10 {
		t.Errorf("single point at (%d, %d) visible=%v, want (40, 10)", x, y, ok)
	}
	if !strings.Contains(sky.View(), string(flatGlyph(sky.points[0].FlatSize))) {
		t.Error("marker not drawn")
	}
}

func TestSkyModel_FocusAndSelect(t *testing.T) {
	st := testManager()
	sky := NewSkyModel().SetSize(100, 30).UpdateData(st.Snapshot())
	if sky.Focused() != "" || sky.cam != overview {
		t.Fatalf("initial focus %q cam %+v", sky.Focused(), sky.cam)
	}

	// Enter with nothing focused does nothing.
	if _, cmd := sky.Update(key(tea.KeyEnter)); cmd != nil {
		t.Error("enter without focus should not select")
	}

	sky, cmd := sky.Update(key(tea.KeyDown))
	if cmd == nil || !sky.animating {
		t.Fatal("focus should start an animation")
	}
	if sky.Focused() != "Kepler-442b" {
		t.Errorf("focused = %q", sky.Focused())
	}
	sky = finishAnimation(t, sky)

	// Kepler-442b sits in the top right corner; the view stops at the edge.
	edge := 1 - 0.5/focusZoom
	if math.Abs(sky.cam.x-edge) > 1e-9 || math.Abs(sky.cam.y-edge) > 1e-9 || sky.cam.zoom != focusZoom {
		t.Errorf("cam = %+v, want (%v, %v) at %vx", sky.cam, edge, edge, focusZoom)
	}

	_, cmd = sky.Update(key(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("enter should emit a command")
	}
	if msg, ok := cmd().(SelectMsg); !ok || msg.Name != "Kepler-442b" {
		t.Errorf("msg = %#v", cmd())
	}

	sky, _ = sky.Update(key(tea.KeyUp))
	if sky.Focused() != "Hot Host b" {
		t.Errorf("focus should wrap backwards, got %q", sky.Focused())
	}

	sky, _ = sky.Update(runes("r"))
	sky = finishAnimation(t, sky)
	if sky.Focused() != "" || sky.cam != overview {
		t.Errorf("reset left focus %q cam %+v", sky.Focused(), sky.cam)
	}
}

func TestSkyModel_ZoomBounds(t *testing.T) {
	sky := NewSkyModel().SetSize(100, 30).UpdateData(testManager().Snapshot())

	sky, _ = sky.Update(runes("-"))
	sky = finishAnimation(t, sky)
	if sky.cam.zoom != 1 {
		t.Errorf("zoom = %v, cannot zoom out past the whole map", sky.cam.zoom)
	}

	for i := 0; i < 30; i++ {
		sky, _ = sky.Update(runes("+"))
		sky = finishAnimation(t, sky)
	}
	if sky.cam.zoom != skyMaxZoom {
		t.Errorf("zoom = %v, want capped at %v", sky.cam.zoom, skyMaxZoom)
	}
}

func TestSkyModel_SelectionRecentres(t *testing.T) {
	st := testManager()
	sky := NewSkyModel().SetSize(100, 30)

	st.Select("Proxima Cen b")
	sky = sky.UpdateData(st.Snapshot())
	if sky.Focused() != "Proxima Cen b" || sky.cam.zoom != focusZoom {
		t.Errorf("focus %q zoom %v", sky.Focused(), sky.cam.zoom)
	}

	// Focus survives a refresh that keeps the revision.
	sky, _ = sky.Update(key(tea.KeyDown))
	sky = finishAnimation(t, sky)
	focused := sky.Focused()
	st.SetUnit(st.Unit().Next())
	sky = sky.UpdateData(st.Snapshot())
	if sky.Focused() != focused {
		t.Errorf("focus = %q after refresh, want %q", sky.Focused(), focused)
	}

	st.ClearSelection()
	sky = sky.UpdateData(st.Snapshot())
	if sky.Focused() != "" || sky.cam != overview {
		t.Errorf("clearing the selection should return to the overview, cam %+v", sky.cam)
	}
}

func TestSkyModel_Labels(t *testing.T) {
	st := testManager()
	st.Select("Proxima Cen b")
	sky := NewSkyModel().SetSize(100, 30).UpdateData(st.Snapshot())

	out := sky.View()
	if !strings.Contains(out, "◄ Proxima Cen b") {
		t.Error("focused label missing")
	}
	if strings.Contains(out, "Hot Host b") {
		t.Error("other planets should be unlabelled by default")
	}

	// Hot Host b sits at RA min, outside the zoomed view.
	sky.cam = overview
	sky, _ = sky.Update(runes("l"))
	if sky.labelMode != LabelAll || !strings.Contains(sky.View(), "Hot Host b") {
		t.Error("label mode all should name every planet")
	}

	sky, _ = sky.Update(runes("l"))
	if sky.labelMode != LabelNone || strings.Contains(sky.View(), "◄") {
		t.Error("labels should be off")
	}
}

func TestSkyModel_Legend(t *testing.T) {
	st := testManager()
	sky := NewSkyModel().SetSize(120, 30).UpdateData(st.Snapshot())
	// One temperature in the set, so the fallback span is shown.
	if out := sky.View(); !strings.Contains(out, "Teq 100K") || !strings.Contains(out, "3000K") {
		t.Errorf("temperature legend missing:\n%s", out)
	}

	p := st.Policy()
	p.ColorMode = projector.ColorByClass
	st.SetPolicy(p)
	sky = sky.UpdateData(st.Snapshot())
	if !strings.Contains(sky.View(), "no predicted classes") {
		t.Error("empty class legend missing")
	}

	koi := star("KOI-7", 100, 0).WithPrediction("CONFIRMED")
	if _, err := st.AddRecord(koi); err != nil {
		t.Fatal(err)
	}
	sky = sky.UpdateData(st.Snapshot())
	out := sky.View()
	if !strings.Contains(out, "■ CONFIRMED") {
		t.Errorf("class legend missing:\n%s", out)
	}
	if strings.Contains(out, "Teq") {
		t.Error("temperature legend shown in class mode")
	}
}

func TestSkyModel_EmptyAndSmall(t *testing.T) {
	sky := NewSkyModel().SetSize(10, 5)
	if sky.View() != "Sky map requires larger terminal" {
		t.Error("small terminal placeholder missing")
	}

	sky = NewSkyModel().SetSize(80, 24).UpdateData(skyManager().Snapshot())
	if !strings.Contains(sky.View(), "No planets to plot") {
		t.Error("empty placeholder missing")
	}
	if _, cmd := sky.Update(key(tea.KeyDown)); cmd != nil {
		t.Error("focus on an empty map should do nothing")
	}
}

func TestFlatGlyph(t *testing.T) {
	tests := []struct {
		size float64
		want rune
	}{
		{projector.FlatSizeMin, glyphSmall},
		{4.9, glyphSmall},
		{5, glyphMedium},
		{8, glyphLarge},
		{projector.FlatSizeMax, glyphLarge},
	}
	for _, tt := range tests {
		if got := flatGlyph(tt.size); got != tt.want {
			t.Errorf("flatGlyph(%v) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
