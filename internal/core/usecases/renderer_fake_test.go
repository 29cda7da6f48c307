package usecases_test

import (
	"fmt"
	"sync"

	"github.com/samirrijal/geopick/internal/core/domain"
)

// fakeRenderer records every command the core issues. live tracks which
// layers are currently attached so tests can assert nothing dangles.
type fakeRenderer struct {
	mu     sync.Mutex
	nextID int

	live    map[domain.LayerID]string // id -> kind
	created []domain.MapConfig
	tiles   []string
	views   []viewCall
	fits    []fitCall
	notices []string

	markerSpecs []domain.MarkerSpec
	circleSpecs []domain.CircleSpec
	paths       []pathCall

	popupsBound  map[domain.LayerID]string
	popupsOpened []domain.LayerID

	onReady   func()
	onClick   func(domain.Coordinate)
	onConfirm func()

	createMapErr error
	addMarkerErr error
	addPathErr   error
}

type viewCall struct {
	center domain.Coordinate
	zoom   int
}

type fitCall struct {
	bounds  domain.Bounds
	padding int
}

type pathCall struct {
	points []domain.Coordinate
	style  domain.PathStyle
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		live:        make(map[domain.LayerID]string),
		popupsBound: make(map[domain.LayerID]string),
	}
}

func (f *fakeRenderer) newID(kind string) domain.LayerID {
	f.nextID++
	id := domain.LayerID(fmt.Sprintf("%s-%d", kind, f.nextID))
	f.live[id] = kind
	return id
}

func (f *fakeRenderer) CreateMap(cfg domain.MapConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMapErr != nil {
		return f.createMapErr
	}
	f.created = append(f.created, cfg)
	return nil
}

func (f *fakeRenderer) SetView(center domain.Coordinate, zoom int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, viewCall{center: center, zoom: zoom})
	return nil
}

func (f *fakeRenderer) AddTileLayer(url, attribution string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiles = append(f.tiles, url)
	return nil
}

func (f *fakeRenderer) AddMarker(spec domain.MarkerSpec) (domain.LayerID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMarkerErr != nil {
		return "", f.addMarkerErr
	}
	f.markerSpecs = append(f.markerSpecs, spec)
	return f.newID("marker"), nil
}

func (f *fakeRenderer) AddCircle(spec domain.CircleSpec) (domain.LayerID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.circleSpecs = append(f.circleSpecs, spec)
	return f.newID("circle"), nil
}

func (f *fakeRenderer) AddPath(points []domain.Coordinate, style domain.PathStyle) (domain.LayerID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addPathErr != nil {
		return "", f.addPathErr
	}
	f.paths = append(f.paths, pathCall{points: points, style: style})
	return f.newID("path"), nil
}

func (f *fakeRenderer) RemoveLayer(id domain.LayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[id]; !ok {
		return fmt.Errorf("remove of unknown layer %s", id)
	}
	delete(f.live, id)
	return nil
}

func (f *fakeRenderer) FitBounds(b domain.Bounds, padding int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fits = append(f.fits, fitCall{bounds: b, padding: padding})
	return nil
}

func (f *fakeRenderer) BindPopup(id domain.LayerID, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popupsBound[id] = html
	return nil
}

func (f *fakeRenderer) OpenPopup(id domain.LayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popupsOpened = append(f.popupsOpened, id)
	return nil
}

func (f *fakeRenderer) Notice(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, message)
	return nil
}

func (f *fakeRenderer) OnReady(fn func())                    { f.onReady = fn }
func (f *fakeRenderer) OnClick(fn func(c domain.Coordinate)) { f.onClick = fn }
func (f *fakeRenderer) OnConfirm(fn func())                  { f.onConfirm = fn }

// liveCount returns the number of currently attached layers of a kind.
func (f *fakeRenderer) liveCount(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}
