package usecases_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/usecases"
)

func enabledSession(t *testing.T, f *fakeRenderer, onSelect func(domain.SelectedPoint)) *usecases.MapSession {
	t.Helper()
	sess := usecases.NewMapSession("s1", f, nil, nil, usecases.DefaultMapConfig())
	sess.Init(usecases.InitParams{}).EnableSelector(onSelect)
	return sess
}

func TestSelector_PlaceTwiceKeepsOneMarker(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)

	sess.PlacePoint(10.48, -66.90, "")
	sess.PlacePoint(10.50, -66.95, "")

	if n := f.liveCount("marker"); n != 1 {
		t.Errorf("expected exactly one selector marker, got %d", n)
	}
	sp := sess.SelectedPoint()
	if sp == nil || sp.Lat != 10.50 || sp.Lng != -66.95 {
		t.Errorf("expected latest point stored, got %+v", sp)
	}
}

func TestSelector_PlaceRequiresEnable(t *testing.T) {
	f := newFakeRenderer()
	sess := usecases.NewMapSession("s1", f, nil, nil, usecases.DefaultMapConfig())
	sess.Init(usecases.InitParams{})

	sess.PlacePoint(1, 2, "")
	if sess.SelectedPoint() != nil {
		t.Error("point must not be stored while selector is disabled")
	}
	if f.liveCount("marker") != 0 {
		t.Error("no marker while selector is disabled")
	}
}

func TestSelector_PopupBoundAndOpened(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)

	sess.PlacePoint(10.48, -66.90, "")
	if len(f.popupsBound) != 1 || len(f.popupsOpened) != 1 {
		t.Fatalf("expected popup bound and opened, got %d/%d",
			len(f.popupsBound), len(f.popupsOpened))
	}
	for _, html := range f.popupsBound {
		if !strings.Contains(html, "google.com/maps") ||
			!strings.Contains(html, "openstreetmap.org") {
			t.Error("popup must carry both external map links")
		}
		if !strings.Contains(html, "data-geopick-confirm") {
			t.Error("popup must carry the confirm trigger")
		}
	}
}

func TestSelector_ConfirmWithoutPoint(t *testing.T) {
	f := newFakeRenderer()
	called := 0
	sess := enabledSession(t, f, func(domain.SelectedPoint) { called++ })

	if sp := sess.ConfirmSelection(); sp != nil {
		t.Errorf("expected nil, got %+v", sp)
	}
	if called != 0 {
		t.Error("callback must not run without a selection")
	}
	if len(f.notices) != 1 {
		t.Errorf("expected a blocking user notice, got %d", len(f.notices))
	}
}

func TestSelector_ConfirmInvokesCallbackOnce(t *testing.T) {
	f := newFakeRenderer()
	var got []domain.SelectedPoint
	sess := enabledSession(t, f, func(sp domain.SelectedPoint) { got = append(got, sp) })

	sess.PlacePoint(10.48, -66.90, "")
	sp := sess.ConfirmSelection()
	if sp == nil {
		t.Fatal("expected confirmed point")
	}
	if len(got) != 1 {
		t.Fatalf("expected callback invoked exactly once, got %d", len(got))
	}
	if got[0].Lat != 10.48 || got[0].Lng != -66.90 {
		t.Errorf("callback got wrong coordinates: %+v", got[0].Coordinate)
	}

	// Confirming does not clear the selection.
	if sess.SelectedPoint() == nil {
		t.Error("selection must persist after confirm")
	}
}

func TestSelector_SelectedPointDerivedAtReadTime(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)
	sess.PlacePoint(10.48, -66.90, "")

	first := sess.SelectedPoint()
	if first == nil {
		t.Fatal("expected a point")
	}
	if _, err := time.Parse(time.RFC3339Nano, first.Timestamp); err != nil {
		t.Errorf("timestamp not RFC 3339: %v", err)
	}
	if first.Formatted != "10.480000, -66.900000" {
		t.Errorf("wrong formatted value: %q", first.Formatted)
	}
	if !strings.Contains(first.ExternalViewURLs.GoogleMaps, "10.48") {
		t.Errorf("google link missing coordinate: %q", first.ExternalViewURLs.GoogleMaps)
	}

	time.Sleep(2 * time.Millisecond)
	second := sess.SelectedPoint()
	if second.Timestamp == first.Timestamp {
		t.Error("timestamps must be derived at read time")
	}
	if second.Coordinate != first.Coordinate {
		t.Error("coordinate must be stable across reads")
	}
}

func TestSelector_ClearPoint(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)

	// No-op when nothing is selected.
	sess.ClearPoint()

	sess.PlacePoint(1, 2, "")
	sess.ClearPoint()
	if sess.SelectedPoint() != nil {
		t.Error("expected selection cleared")
	}
	if f.liveCount("marker") != 0 {
		t.Error("selector marker must be removed")
	}
}

func TestSelector_ClickRoundsToEightDecimals(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)

	if f.onClick == nil {
		t.Fatal("enable must register a click handler")
	}
	f.onClick(domain.Coordinate{Lat: 10.123456789123, Lng: -66.987654321987})

	sp := sess.SelectedPoint()
	if sp == nil {
		t.Fatal("click must place a point")
	}
	if sp.Lat != 10.12345679 || sp.Lng != -66.98765432 {
		t.Errorf("expected 8-decimal rounding, got %.12f, %.12f", sp.Lat, sp.Lng)
	}
}

func TestSelector_ConfirmTriggerDelegated(t *testing.T) {
	f := newFakeRenderer()
	called := 0
	sess := enabledSession(t, f, func(domain.SelectedPoint) { called++ })

	sess.PlacePoint(3, 4, "")
	if f.onConfirm == nil {
		t.Fatal("enable must register a confirm handler")
	}
	f.onConfirm()
	if called != 1 {
		t.Errorf("expected delegated confirm to invoke callback, got %d", called)
	}
}

func TestSelector_ReadyPlacesDefaultPointAtCenter(t *testing.T) {
	f := newFakeRenderer()
	sess := usecases.NewMapSession("s1", f, nil, nil, usecases.DefaultMapConfig())
	sess.Init(usecases.InitParams{Lat: "10.5", Lng: "-66.9"}).EnableSelector(nil)

	if f.onReady == nil {
		t.Fatal("enable must register a ready handler")
	}
	f.onReady()

	sp := sess.SelectedPoint()
	if sp == nil {
		t.Fatal("ready must place the default point")
	}
	if sp.Lat != 10.5 || sp.Lng != -66.9 {
		t.Errorf("default point must be the session center, got %+v", sp.Coordinate)
	}

	// A later click replaces it; readiness must not override an existing point.
	f.onClick(domain.Coordinate{Lat: 11, Lng: -67})
	f.onReady()
	if sp := sess.SelectedPoint(); sp.Lat != 11 {
		t.Errorf("ready must not replace an existing point, got %+v", sp.Coordinate)
	}
}

func TestSelector_EnableRequiresInit(t *testing.T) {
	f := newFakeRenderer()
	sess := usecases.NewMapSession("s1", f, nil, nil, usecases.DefaultMapConfig())

	sess.EnableSelector(nil)
	if sess.SelectorState() != usecases.SelectorDisabled {
		t.Errorf("expected disabled before init, got %q", sess.SelectorState())
	}
}

func TestSelector_StateTransitions(t *testing.T) {
	f := newFakeRenderer()
	sess := enabledSession(t, f, nil)

	if sess.SelectorState() != usecases.SelectorEnabled {
		t.Fatalf("expected enabled, got %q", sess.SelectorState())
	}
	sess.PlacePoint(1, 1, "")
	if sess.SelectorState() != usecases.SelectorPointPending {
		t.Errorf("expected pointPending, got %q", sess.SelectorState())
	}
	sess.ConfirmSelection()
	if sess.SelectorState() != usecases.SelectorConfirmed {
		t.Errorf("expected confirmed, got %q", sess.SelectorState())
	}
	// Confirmed is not terminal.
	sess.PlacePoint(2, 2, "")
	if sess.SelectorState() != usecases.SelectorPointPending {
		t.Errorf("expected pointPending after confirm, got %q", sess.SelectorState())
	}
}
