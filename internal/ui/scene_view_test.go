package ui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/r3"

	"github.com/litescript/ls-exoplanets/internal/astro"
)

func TestViewBasis_Project(t *testing.T) {
	b := newViewBasis(r3.Vector{X: 10}, r3.Vector{}, r3.Vector{Z: 1})

	tests := []struct {
		name    string
		p       r3.Vector
		visible bool
		check   func(x, y int) bool
	}{
		{"centre", r3.Vector{}, true, func(x, y int) bool { return x == 40 && y == 10 }},
		{"above", r3.Vector{Z: 1}, true, func(x, y int) bool { return x == 40 && y < 10 }},
		{"right", r3.Vector{Y: 1}, true, func(x, y int) bool { return x > 40 && y == 10 }},
		{"behind eye", r3.Vector{X: 20}, false, nil},
		{"at eye plane", r3.Vector{X: 10, Y: 1}, false, nil},
		{"off screen", r3.Vector{Y: 100}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, _, ok := b.project(tt.p, 80, 20)
			if ok != tt.visible {
				t.Fatalf("visible = %v, want %v", ok, tt.visible)
			}
			if ok && !tt.check(x, y) {
				t.Errorf("projected to (%d, %d)", x, y)
			}
		})
	}
}

func TestViewBasis_LookingAlongUp(t *testing.T) {
	// Forward parallel to up must still give a usable frame.
	b := newViewBasis(r3.Vector{Z: 10}, r3.Vector{}, r3.Vector{Z: 1})
	if math.Abs(b.right.Norm()-1) > 1e-9 || math.Abs(b.up.Norm()-1) > 1e-9 {
		t.Errorf("basis not normalised: %+v", b)
	}
	if _, _, _, ok := b.project(r3.Vector{}, 80, 20); !ok {
		t.Error("centre should be visible")
	}
}

func TestSceneModel_RevisionContinuity(t *testing.T) {
	st := testManager()
	scene := NewSceneModel().SetSize(100, 30)

	st.Select("Kepler-442b")
	scene = scene.UpdateData(st.Snapshot())

	scene, _ = scene.Update(tea.KeyMsg{Type: tea.KeyRight})
	scene, _ = scene.Update(runes("+"))
	if scene.yaw != orbitStepDeg || scene.zoom != zoomStep {
		t.Fatalf("yaw/zoom = %v/%v", scene.yaw, scene.zoom)
	}

	// Same revision keeps user orbit.
	scene = scene.UpdateData(st.Snapshot())
	if scene.yaw != orbitStepDeg {
		t.Error("orbit should survive a refresh with the same revision")
	}

	// A unit change keeps the revision too.
	st.SetUnit(st.Unit().Next())
	scene = scene.UpdateData(st.Snapshot())
	if scene.yaw != orbitStepDeg {
		t.Error("orbit should survive a unit change")
	}

	st.Select("Proxima Cen b")
	scene = scene.UpdateData(st.Snapshot())
	if scene.yaw != 0 || scene.pitch != 0 || scene.zoom != 1 {
		t.Errorf("orbit not reset on new revision: %v/%v/%v", scene.yaw, scene.pitch, scene.zoom)
	}
}

func TestSceneModel_Eye(t *testing.T) {
	st := testManager()
	scene := NewSceneModel().UpdateData(st.Snapshot())
	pose := st.Snapshot().Camera.Pose

	if d := scene.Eye().Sub(pose.Eye).Norm(); d > 1e-6 {
		t.Errorf("unorbited eye off by %v", d)
	}

	scene.zoom = 0.5
	want := pose.Eye.Sub(pose.Center).Norm() * 0.5
	if got := scene.Eye().Sub(pose.Center).Norm(); math.Abs(got-want) > 1e-6 {
		t.Errorf("zoomed distance = %v, want %v", got, want)
	}

	scene.pitch = 500
	_, el, _ := astro.CartesianToEquatorial(scene.Eye().Sub(pose.Center))
	if el > maxElevation+1e-9 {
		t.Errorf("elevation %v exceeds clamp", el)
	}
}

func TestSceneModel_View(t *testing.T) {
	st := testManager()
	st.Select("Proxima Cen b")
	scene := NewSceneModel().SetSize(100, 30).UpdateData(st.Snapshot())

	out := scene.View()
	for _, want := range []string{"3D Scene", "Unit: pc", "Focused on 'Proxima Cen b'", "◄ Proxima Cen b"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	scene, _ = scene.Update(runes("l")) // all
	scene, _ = scene.Update(runes("l")) // off
	if strings.Contains(scene.View(), "◄") {
		t.Error("labels should be hidden")
	}

	small := NewSceneModel().SetSize(10, 5)
	if !strings.Contains(small.View(), "larger terminal") {
		t.Error("small terminal message missing")
	}
}

func TestSizeGlyph(t *testing.T) {
	tests := []struct {
		size float64
		want rune
	}{
		{6, glyphSmall},
		{12, glyphMedium},
		{24, glyphLarge},
	}
	for _, tt := range tests {
		if got := sizeGlyph(tt.size); got != tt.want {
			t.Errorf("sizeGlyph(%v) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
