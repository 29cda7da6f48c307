// Package leafletws implements ports.Renderer by driving a browser-side
// Leaflet map over a WebSocket command channel.
package leafletws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/pkg/logging"
	"github.com/samirrijal/geopick/internal/pkg/metrics"
)

// wsConn is the subset of *websocket.Conn the bridge needs; narrowed so
// tests can drive the bridge without a network connection.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// event is a message from the browser surface.
type event struct {
	Event string  `json:"event"` // "ready" | "click" | "confirm"
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Bridge translates renderer commands into JSON messages for one browser
// surface. Commands issued before a surface attaches are queued and flushed
// on attach, so a session can be configured ahead of its client.
type Bridge struct {
	log *slog.Logger

	mu      sync.Mutex
	conn    wsConn
	pending [][]byte
	ready   bool

	onReady   func()
	onClick   func(domain.Coordinate)
	onConfirm func()
}

// NewBridge creates a bridge with no surface attached.
func NewBridge(sessionID string) *Bridge {
	return &Bridge{
		log: logging.Component("leafletws").With("session_id", sessionID),
	}
}

// Attach binds a WebSocket connection, flushes queued commands and pumps
// events until the connection drops. Blocks; run it from the connection's
// handler goroutine.
func (b *Bridge) Attach(conn wsConn) {
	b.mu.Lock()
	b.conn = conn
	queued := b.pending
	b.pending = nil
	b.mu.Unlock()

	metrics.ActiveWebSockets.Inc()
	defer metrics.ActiveWebSockets.Dec()

	for _, msg := range queued {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.log.Warn("flush failed", "error", err)
			break
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			b.log.Warn("bad event payload", "error", err)
			continue
		}
		b.dispatch(ev)
	}

	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
}

func (b *Bridge) dispatch(ev event) {
	b.mu.Lock()
	// Readiness is latched: handlers registered after the surface reported
	// ready still get invoked (see OnReady).
	if ev.Event == "ready" {
		b.ready = true
	}
	onReady, onClick, onConfirm := b.onReady, b.onClick, b.onConfirm
	b.mu.Unlock()

	switch ev.Event {
	case "ready":
		if onReady != nil {
			onReady()
		}
	case "click":
		if onClick != nil {
			onClick(domain.Coordinate{Lat: ev.Lat, Lng: ev.Lng})
		}
	case "confirm":
		if onConfirm != nil {
			onConfirm()
		}
	default:
		b.log.Warn("unknown event", "event", ev.Event)
	}
}

// send marshals one command and writes it, or queues it when no surface is
// attached.
func (b *Bridge) send(op string, payload map[string]any) error {
	msg := make(map[string]any, len(payload)+1)
	msg["op"] = op
	for k, v := range payload {
		msg[k] = v
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		b.pending = append(b.pending, data)
		return nil
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// --- ports.Renderer ---

func (b *Bridge) CreateMap(cfg domain.MapConfig) error {
	return b.send("createMap", map[string]any{
		"lat":          cfg.Lat,
		"lng":          cfg.Lng,
		"zoom":         cfg.Zoom,
		"container_id": cfg.ContainerID,
	})
}

func (b *Bridge) SetView(center domain.Coordinate, zoom int) error {
	return b.send("setView", map[string]any{
		"lat":  center.Lat,
		"lng":  center.Lng,
		"zoom": zoom, // negative means keep current zoom
	})
}

func (b *Bridge) AddTileLayer(url, attribution string) error {
	return b.send("addTileLayer", map[string]any{
		"url":         url,
		"attribution": attribution,
	})
}

func (b *Bridge) AddMarker(spec domain.MarkerSpec) (domain.LayerID, error) {
	id := domain.LayerID(uuid.NewString())
	err := b.send("addMarker", map[string]any{
		"id":    string(id),
		"lat":   spec.Lat,
		"lng":   spec.Lng,
		"icon":  spec.Icon,
		"label": spec.Label,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *Bridge) AddCircle(spec domain.CircleSpec) (domain.LayerID, error) {
	id := domain.LayerID(uuid.NewString())
	err := b.send("addCircle", map[string]any{
		"id":           string(id),
		"lat":          spec.Lat,
		"lng":          spec.Lng,
		"radius":       spec.RadiusMeters,
		"color":        spec.Color,
		"fill_opacity": spec.FillOpacity,
		"label":        spec.Label,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *Bridge) AddPath(points []domain.Coordinate, style domain.PathStyle) (domain.LayerID, error) {
	id := domain.LayerID(uuid.NewString())
	latlngs := make([][2]float64, len(points))
	for i, p := range points {
		latlngs[i] = [2]float64{p.Lat, p.Lng}
	}
	err := b.send("addPath", map[string]any{
		"id":      string(id),
		"points":  latlngs,
		"color":   style.Color,
		"weight":  style.Weight,
		"opacity": style.Opacity,
		"dash":    style.DashArray,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *Bridge) RemoveLayer(id domain.LayerID) error {
	return b.send("removeLayer", map[string]any{"id": string(id)})
}

func (b *Bridge) FitBounds(bounds domain.Bounds, padding int) error {
	return b.send("fitBounds", map[string]any{
		"min_lat": bounds.MinLat,
		"min_lng": bounds.MinLng,
		"max_lat": bounds.MaxLat,
		"max_lng": bounds.MaxLng,
		"padding": padding,
	})
}

func (b *Bridge) BindPopup(id domain.LayerID, html string) error {
	return b.send("bindPopup", map[string]any{"id": string(id), "html": html})
}

func (b *Bridge) OpenPopup(id domain.LayerID) error {
	return b.send("openPopup", map[string]any{"id": string(id)})
}

func (b *Bridge) Notice(message string) error {
	return b.send("notice", map[string]any{"message": message})
}

// OnReady registers the readiness handler. When the surface already reported
// ready the handler fires immediately, so a subscriber registered after the
// browser connected (the usual REST flow) is not left waiting forever.
func (b *Bridge) OnReady(fn func()) {
	b.mu.Lock()
	b.onReady = fn
	ready := b.ready
	b.mu.Unlock()
	if ready && fn != nil {
		fn()
	}
}

func (b *Bridge) OnClick(fn func(c domain.Coordinate)) {
	b.mu.Lock()
	b.onClick = fn
	b.mu.Unlock()
}

func (b *Bridge) OnConfirm(fn func()) {
	b.mu.Lock()
	b.onConfirm = fn
	b.mu.Unlock()
}
