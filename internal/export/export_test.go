package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/catalog"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

func testRecords() []catalog.Record {
	return []catalog.Record{
		{Name: "Kepler-442b", RADeg: catalog.Some(285.679), DecDeg: catalog.Some(39.283),
			DistancePc: catalog.Some(370.4), EqTempK: catalog.Some(233), RadiusEarth: catalog.Some(1.34)},
		{Name: "Proxima Cen b", RADeg: catalog.Some(217.393), DecDeg: catalog.Some(-62.676),
			DistancePc: catalog.Some(1.30119), RadiusEarth: catalog.Some(1.07), PredictedClass: "CONFIRMED"},
		{Name: "Too Close", RADeg: catalog.Some(1), DecDeg: catalog.Some(1), DistancePc: catalog.Some(0.001)},
	}
}

func testFigure(selected string) (*Figure, projector.Projection) {
	proj := projector.Project(testRecords(), astro.LightYear, projector.DefaultPolicy())
	cam := camera.Target(proj.Points, astro.LightYear, selected, camera.DefaultConfig())
	return NewFigure(proj, cam, camera.DefaultConfig()), proj
}

func TestNewFigure(t *testing.T) {
	fig, proj := testFigure("Kepler-442b")

	if _, err := uuid.Parse(fig.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", fig.ID, err)
	}
	if fig.Unit != "ly" || fig.AxisTitles[2] != "Z (ly)" {
		t.Errorf("unit/titles = %q %v", fig.Unit, fig.AxisTitles)
	}
	wantRange := 3000 * astro.LightYearsPerParsec
	if math.Abs(fig.AxisRange[1]-wantRange) > 1e-9 || fig.AxisRange[0] != -fig.AxisRange[1] {
		t.Errorf("axis range = %v", fig.AxisRange)
	}
	if fig.Origin.Name != OriginName || fig.Origin.Pos != (Vec3{}) {
		t.Errorf("origin = %+v", fig.Origin)
	}

	if fig.Included != 2 || fig.Excluded != 1 || fig.Total != 3 {
		t.Errorf("counts = %d/%d/%d", fig.Included, fig.Excluded, fig.Total)
	}
	if fig.ExcludedBy["too_close"] != 1 || fig.ExcludedBy["missing_field"] != 0 {
		t.Errorf("excluded_by = %v", fig.ExcludedBy)
	}

	n := len(proj.Points)
	arrays := []int{
		len(fig.Points.Name), len(fig.Points.X), len(fig.Points.Y), len(fig.Points.Z),
		len(fig.Points.Size), len(fig.Points.Color), len(fig.Points.Hover), len(fig.Points.ColorValue),
		len(fig.Points.FlatX), len(fig.Points.FlatY), len(fig.Points.FlatSize),
	}
	for i, l := range arrays {
		if l != n {
			t.Errorf("array %d has %d entries, want %d", i, l, n)
		}
	}
	if fig.Points.ColorValue[0] == nil || *fig.Points.ColorValue[0] != 233 {
		t.Error("first colour value should be 233")
	}
	if fig.Points.ColorValue[1] != nil {
		t.Error("missing temperature should export as null")
	}
	if fig.Points.Class[1] != "CONFIRMED" {
		t.Errorf("class = %q", fig.Points.Class[1])
	}
	// Kepler-442b has the larger RA and Dec of the two survivors.
	if fig.Points.FlatX[0] != 1 || fig.Points.FlatY[0] != 1 || fig.Points.FlatX[1] != 0 || fig.Points.FlatY[1] != 0 {
		t.Errorf("flat = %v %v", fig.Points.FlatX, fig.Points.FlatY)
	}
	if len(fig.ColorScale.Classes) != 1 || fig.ColorScale.Classes[0].Class != "CONFIRMED" {
		t.Errorf("legend = %+v", fig.ColorScale.Classes)
	}

	if fig.Status != "found" || fig.Revision != "Kepler-442b" {
		t.Errorf("status/revision = %q/%q", fig.Status, fig.Revision)
	}
	if fig.Camera.Up != (Vec3{Z: 1}) {
		t.Errorf("camera up = %+v", fig.Camera.Up)
	}
	if fig.Camera.Center.X != fig.Points.X[0] {
		t.Error("camera should centre on the selection")
	}
}

func TestNewFigure_NoSelection(t *testing.T) {
	fig, _ := testFigure("")
	if fig.Revision != camera.PersistentView || fig.Status != "no_selection" {
		t.Errorf("revision/status = %q/%q", fig.Revision, fig.Status)
	}
	k := 1500 * astro.LightYearsPerParsec
	if math.Abs(fig.Camera.Eye.X-k) > 1e-9 || fig.Camera.Center != (Vec3{}) {
		t.Errorf("camera = %+v", fig.Camera)
	}
}

func TestFigure_WriteJSON(t *testing.T) {
	fig, _ := testFigure("Proxima Cen b")

	var buf bytes.Buffer
	if err := fig.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"id", "unit", "points", "camera", "revision", "color_scale", "excluded_by"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	cam := decoded["camera"].(map[string]interface{})
	up := cam["up"].(map[string]interface{})
	if up["z"].(float64) != 1 {
		t.Errorf("camera.up = %v", up)
	}
}

func TestFigure_WriteYAML(t *testing.T) {
	fig, _ := testFigure("")

	var buf bytes.Buffer
	if err := fig.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	var decoded struct {
		Unit     string `yaml:"unit"`
		Revision string `yaml:"revision"`
		Points   struct {
			Name []string `yaml:"name"`
		} `yaml:"points"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded.Unit != "ly" || decoded.Revision != camera.PersistentView || len(decoded.Points.Name) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFromSnapshot(t *testing.T) {
	m := state.NewManager(state.DefaultConfig())
	m.SetCatalog(testRecords(), "test", 0, nil)
	m.Select("Nope")

	fig := FromSnapshot(m.Snapshot())
	if fig.Version != m.Version() {
		t.Errorf("version = %d, want %d", fig.Version, m.Version())
	}
	if fig.Status != "not_found" || !strings.Contains(fig.Message, "'Nope' not found") {
		t.Errorf("status/message = %q/%q", fig.Status, fig.Message)
	}
}

func TestWriteSummaryTable(t *testing.T) {
	proj := projector.Project(testRecords(), astro.Parsec, projector.DefaultPolicy())
	cam := camera.Target(proj.Points, astro.Parsec, "Kepler-442b", camera.DefaultConfig())

	var buf bytes.Buffer
	WriteSummaryTable(&buf, proj, cam, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	out := buf.String()

	for _, want := range []string{
		"Exoplanet projection (pc) @ 2026-01-02T03:04:05Z",
		"Kepler-442b",
		"370.400",
		"233 K",
		"N/A",
		"CONFIRMED",
		"Included: 2 of 3 (excluded: too_close 1)",
		"Camera: Focused on 'Kepler-442b'",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSummaryTable_Empty(t *testing.T) {
	proj := projector.Project(nil, astro.Parsec, projector.DefaultPolicy())
	cam := camera.Target(nil, astro.Parsec, "", camera.DefaultConfig())

	var buf bytes.Buffer
	WriteSummaryTable(&buf, proj, cam, time.Now())
	if !strings.Contains(buf.String(), "No planets in the working set") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteEvents(t *testing.T) {
	var buf bytes.Buffer
	WriteEvents(&buf, []state.Event{
		{Type: state.EventUnitChanged, Timestamp: time.Now(), Detail: "ly"},
		{Type: state.EventSelectionLost, Timestamp: time.Now(), Name: "Kepler-442b"},
	})
	out := buf.String()
	if !strings.Contains(out, "UNIT_CHANGED") || !strings.Contains(out, "ly") || !strings.Contains(out, "SELECTION_LOST") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	WriteEvents(&buf, nil)
	if !strings.Contains(buf.String(), "No events") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is .."},
		{"abc", 2, "ab"},
		{"Gliese 667 Cç", 13, "Gliese 667 Cç"},
		{"Κεπλερ-442 βββ", 10, "Κεπλερ-4.."},
		{"ééé", 2, "éé"},
	}
	for _, tt := range tests {
		got := truncateStr(tt.in, tt.max)
		if !utf8.ValidString(got) {
			t.Errorf("truncateStr(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
