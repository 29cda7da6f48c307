package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/usecases"
)

// sessionView is the REST representation of a live session.
type sessionView struct {
	ID            string           `json:"id"`
	Initialized   bool             `json:"initialized"`
	Config        domain.MapConfig `json:"config"`
	MarkerCount   int              `json:"marker_count"`
	CircleCount   int              `json:"circle_count"`
	RouteCount    int              `json:"route_count"`
	SelectorState string           `json:"selector_state"`
}

func viewOf(s *usecases.MapSession) sessionView {
	return sessionView{
		ID:            s.ID(),
		Initialized:   s.Initialized(),
		Config:        s.Config(),
		MarkerCount:   s.MarkerCount(),
		CircleCount:   s.CircleCount(),
		RouteCount:    s.RouteCount(),
		SelectorState: string(s.SelectorState()),
	}
}

// session resolves the :id path parameter against the manager.
func session(c *fiber.Ctx, deps *Dependencies) (*usecases.MapSession, error) {
	s, ok := deps.Sessions.Get(c.Params("id"))
	if !ok {
		return nil, errNotFound(c, "session not found")
	}
	return s, nil
}

// --- Session lifecycle ---

type createSessionRequest struct {
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Zoom          *int     `json:"zoom"`
	ContainerID   string   `json:"container_id"`
	TileSourceURL string   `json:"tile_source_url"`
	Attribution   string   `json:"attribution"`
	SelectorIcon  string   `json:"selector_icon"`
}

// CreateSessionHandler creates an uninitialized session with its own
// renderer bridge and returns its id.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		id := uuid.NewString()
		sess := usecases.NewMapSession(id, deps.NewRenderer(id), deps.Finder, deps.Publisher, deps.Defaults)

		if req.Lat != nil && req.Lng != nil {
			sess.SetCenter(*req.Lat, *req.Lng)
		}
		if req.Zoom != nil {
			sess.SetZoom(*req.Zoom)
		}
		if req.ContainerID != "" {
			sess.SetContainer(req.ContainerID)
		}
		if req.TileSourceURL != "" {
			sess.SetTileSource(req.TileSourceURL, req.Attribution)
		}
		if req.SelectorIcon != "" {
			sess.SetSelectorIcon(req.SelectorIcon)
		}

		deps.Sessions.Put(sess)
		return c.Status(201).JSON(viewOf(sess))
	}
}

// ListSessionsHandler returns all live sessions.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions := deps.Sessions.List()
		views := make([]sessionView, 0, len(sessions))
		for _, s := range sessions {
			views = append(views, viewOf(s))
		}
		return c.JSON(views)
	}
}

// GetSessionHandler returns one session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		return c.JSON(viewOf(sess))
	}
}

// DeleteSessionHandler drops a session and its renderer bridge.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, ok := deps.Sessions.Get(id); !ok {
			return errNotFound(c, "session not found")
		}
		deps.Sessions.Delete(id)
		if deps.Bridges != nil {
			deps.Bridges.Remove(id)
		}
		return c.SendStatus(204)
	}
}

// InitSessionHandler initializes the session's map surface. Numeric fields
// arrive as strings; invalid values keep the prior configuration.
func InitSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var params usecases.InitParams
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&params); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		sess.Init(params)
		return c.JSON(viewOf(sess))
	}
}

type recenterRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Zoom *int     `json:"zoom"`
}

// RecenterHandler moves the view. An omitted zoom preserves the current one.
func RecenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var req recenterRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}

		if req.Zoom != nil {
			sess.Recenter(*req.Lat, *req.Lng, *req.Zoom)
		} else {
			sess.Recenter(*req.Lat, *req.Lng)
		}
		return c.JSON(viewOf(sess))
	}
}

// --- Routes ---

type drawRouteRequest struct {
	Origin          domain.Coordinate `json:"origin"`
	Destination     domain.Coordinate `json:"destination"`
	UseRoadRoute    bool              `json:"use_road_route"`
	Color           string            `json:"color"`
	Weight          int               `json:"weight"`
	Opacity         float64           `json:"opacity"`
	DashArray       string            `json:"dash_array"`
	FitBounds       *bool             `json:"fit_bounds"`
	OriginIcon      string            `json:"origin_icon"`
	DestinationIcon string            `json:"destination_icon"`
}

// DrawRouteHandler draws a route between two points. A road request that the
// routing service cannot serve still succeeds with a straight-line result.
func DrawRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var req drawRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}

		result := sess.DrawRoute(c.UserContext(), req.Origin, req.Destination, usecases.RouteOptions{
			UseRoadRoute:    req.UseRoadRoute,
			Color:           req.Color,
			Weight:          req.Weight,
			Opacity:         req.Opacity,
			DashArray:       req.DashArray,
			FitBounds:       req.FitBounds,
			OriginIcon:      req.OriginIcon,
			DestinationIcon: req.DestinationIcon,
		})
		if result == nil {
			return errBadRequest(c, "coordinates must be finite numbers")
		}
		return c.JSON(result)
	}
}

// ClearRoutesHandler removes every route with its endpoint markers.
func ClearRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		sess.ClearRoutes()
		return c.JSON(fiber.Map{"route_count": sess.RouteCount()})
	}
}

// --- Markers and circles ---

type addMarkersRequest struct {
	Markers     []domain.MarkerSpec `json:"markers"`
	FitToBounds bool                `json:"fit_to_bounds"`
}

// AddMarkersHandler places markers in bulk.
func AddMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var req addMarkersRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}

		ids := sess.AddMarkers(req.Markers, req.FitToBounds)
		return c.JSON(fiber.Map{"added": len(ids), "ids": ids})
	}
}

// ClearMarkersHandler removes every registry-tracked marker.
func ClearMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		sess.ClearMarkers()
		return c.JSON(fiber.Map{"marker_count": sess.MarkerCount()})
	}
}

type addCirclesRequest struct {
	Circles     []domain.CircleSpec `json:"circles"`
	FitToBounds bool                `json:"fit_to_bounds"`
}

// AddCirclesHandler places zone circles in bulk.
func AddCirclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var req addCirclesRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}

		ids := sess.AddCircles(req.Circles, req.FitToBounds)
		return c.JSON(fiber.Map{"added": len(ids), "ids": ids})
	}
}

// ClearCirclesHandler removes every registry-tracked circle.
func ClearCirclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		sess.ClearCircles()
		return c.JSON(fiber.Map{"circle_count": sess.CircleCount()})
	}
}

// --- Selector ---

// EnableSelectorHandler starts the coordinate-selection workflow.
func EnableSelectorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}
		// Confirmed points reach subscribers through the event stream.
		sess.EnableSelector(nil)
		return c.JSON(fiber.Map{"selector_state": string(sess.SelectorState())})
	}
}

// DisableSelectorHandler stops the workflow.
func DisableSelectorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		sess.DisableSelector()
		return c.JSON(fiber.Map{"selector_state": string(sess.SelectorState())})
	}
}

type placePointRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Icon string   `json:"icon"`
}

// PlacePointHandler selects a coordinate programmatically.
func PlacePointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}

		var req placePointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		if sess.SelectorState() == usecases.SelectorDisabled {
			return errConflict(c, "selector not enabled")
		}

		sess.PlacePoint(*req.Lat, *req.Lng, req.Icon)
		return c.JSON(fiber.Map{
			"selector_state": string(sess.SelectorState()),
			"point":          sess.SelectedPoint(),
		})
	}
}

// GetSelectorHandler returns the workflow state and current selection.
func GetSelectorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"selector_state": string(sess.SelectorState()),
			"point":          sess.SelectedPoint(),
		})
	}
}

// ConfirmSelectionHandler confirms the current selection. With nothing
// selected the session shows a notice on the map and this returns 409.
func ConfirmSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		point := sess.ConfirmSelection()
		if point == nil {
			return errConflict(c, "no point selected")
		}
		return c.JSON(point)
	}
}

// ClearPointHandler removes the current selection.
func ClearPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		sess.ClearPoint()
		return c.JSON(fiber.Map{"selector_state": string(sess.SelectorState())})
	}
}

// --- Overlay sets ---

// ApplyOverlayHandler bulk-loads a stored overlay set onto a session.
// ?fit=false skips framing the set.
func ApplyOverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Overlays == nil {
			return errUnavailable(c, "overlay storage not configured")
		}
		sess, err := session(c, deps)
		if err != nil {
			return err
		}
		if !sess.Initialized() {
			return errConflict(c, "session not initialized")
		}

		fit := c.QueryBool("fit", true)
		added, err := deps.Overlays.Apply(c.UserContext(), sess, c.Params("slug"), fit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"added": added})
	}
}

// ListOverlaySetsHandler returns the stored overlay set slugs.
func ListOverlaySetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Overlays == nil {
			return errUnavailable(c, "overlay storage not configured")
		}
		slugs, err := deps.Overlays.Sets(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"sets": slugs})
	}
}

type saveOverlayRequest struct {
	Items []domain.OverlayItem `json:"items"`
}

// SaveOverlayHandler upserts overlay items in batch.
func SaveOverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Overlays == nil {
			return errUnavailable(c, "overlay storage not configured")
		}
		var req saveOverlayRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Items) == 0 {
			return errBadRequest(c, "items are required")
		}
		if err := deps.Overlays.Save(c.UserContext(), req.Items); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(fiber.Map{"saved": len(req.Items)})
	}
}

// DeleteOverlaySetHandler removes a whole overlay set.
func DeleteOverlaySetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Overlays == nil {
			return errUnavailable(c, "overlay storage not configured")
		}
		if err := deps.Overlays.DeleteSet(c.UserContext(), c.Params("slug")); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}
