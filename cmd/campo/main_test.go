package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ctessum/geom"

	"github.com/ERKuipers/campo/internal/dataset"
	"github.com/ERKuipers/campo/internal/geo"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "file", "a.csv")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected json: %v", err)
	}
	if rec["service"] != "campo" || rec["file"] != "a.csv" {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	setupLogger(&buf, "debug", "text").Debug("trace")
	if !strings.Contains(buf.String(), "source=") {
		t.Errorf("expected source location at debug level, got %q", buf.String())
	}
}

func TestPointBounds(t *testing.T) {
	if pointBounds(nil) != nil {
		t.Error("expected no bounds for empty coordinates")
	}
	b := pointBounds([]geom.Point{{X: 3, Y: -1}, {X: -2, Y: 4}, {X: 0, Y: 0}})
	want := geom.Bounds{Min: geom.Point{X: -2, Y: -1}, Max: geom.Point{X: 3, Y: 4}}
	if b == nil || *b != want {
		t.Errorf("unexpected bounds %+v", b)
	}
	if got := formatBounds(b); got != "-2,-1 .. 3,4" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestFieldBounds(t *testing.T) {
	prop := dataset.New().AddPhenomenon("area").AddPropertySet("land", "static_same_field").AddFieldProperty("suitability")
	values, err := dataset.Matrix(dataset.Float32, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("matrix failed: %v", err)
	}
	if err := prop.AddField(0, &dataset.Field{Values: values, XCoord: []float64{0, 10}, YCoord: []float64{0, 10}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := prop.AddField(1, &dataset.Field{Values: values, XCoord: []float64{-5, 5}, YCoord: []float64{20, 30}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	b := fieldBounds(prop)
	want := geom.Bounds{Min: geom.Point{X: -5, Y: 0}, Max: geom.Point{X: 10, Y: 30}}
	if b == nil || *b != want {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestWriteInfo(t *testing.T) {
	ds := dataset.New()
	shops := ds.AddPhenomenon("shops")
	front := shops.AddPropertySet("frontdoor", "static_same_point")
	coords := []geom.Point{{X: 0, Y: 0}, {X: 2, Y: 1}}
	if _, err := front.AddPointProperty("price", coords, dataset.Vector(dataset.Float64, []float64{1, 3})); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	ds.AddPhenomenon("roads").AddPropertySet("net", "hexagons")

	sr, err := geo.ResolveCRS("EPSG:4326")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	var buf bytes.Buffer
	if err := writeInfo(&buf, ds, sr); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PHENOMENON", "frontdoor", "static_same_point", "price", "mean=2", "0,0 .. 2,1", "lon/lat", "hexagons (unsupported)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestOrDash(t *testing.T) {
	if orDash("") != "-" || orDash("EPSG:4326") != "EPSG:4326" {
		t.Error("unexpected orDash result")
	}
}
