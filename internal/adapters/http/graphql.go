package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geopick/internal/core/usecases"
)

// buildSchema creates the read-only GraphQL schema mirroring the REST views.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})
	_ = coordinateType

	externalViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ExternalViewURLs",
		Fields: graphql.Fields{
			"google_maps":   &graphql.Field{Type: graphql.String},
			"openstreetmap": &graphql.Field{Type: graphql.String},
		},
	})

	selectedPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SelectedPoint",
		Fields: graphql.Fields{
			"lat":       &graphql.Field{Type: graphql.Float},
			"lng":       &graphql.Field{Type: graphql.Float},
			"timestamp": &graphql.Field{Type: graphql.String},
			"formatted": &graphql.Field{Type: graphql.String},
			"external_view_urls": &graphql.Field{
				Type: externalViewType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, _ := p.Source.(map[string]interface{})
					return pt["external_view_urls"], nil
				},
			},
		},
	})

	configType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapConfig",
		Fields: graphql.Fields{
			"lat":          &graphql.Field{Type: graphql.Float},
			"lng":          &graphql.Field{Type: graphql.Float},
			"zoom":         &graphql.Field{Type: graphql.Int},
			"container_id": &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*usecases.MapSession).ID(), nil
				},
			},
			"initialized": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*usecases.MapSession).Initialized(), nil
				},
			},
			"config": &graphql.Field{
				Type: configType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cfg := p.Source.(*usecases.MapSession).Config()
					return map[string]interface{}{
						"lat": cfg.Lat, "lng": cfg.Lng,
						"zoom": cfg.Zoom, "container_id": cfg.ContainerID,
					}, nil
				},
			},
			"marker_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*usecases.MapSession).MarkerCount(), nil
				},
			},
			"circle_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*usecases.MapSession).CircleCount(), nil
				},
			},
			"route_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*usecases.MapSession).RouteCount(), nil
				},
			},
			"selector_state": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*usecases.MapSession).SelectorState()), nil
				},
			},
			"selected_point": &graphql.Field{
				Type: selectedPointType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := p.Source.(*usecases.MapSession).SelectedPoint()
					if pt == nil {
						return nil, nil
					}
					return map[string]interface{}{
						"lat": pt.Lat, "lng": pt.Lng,
						"timestamp": pt.Timestamp, "formatted": pt.Formatted,
						"external_view_urls": map[string]interface{}{
							"google_maps":   pt.ExternalViewURLs.GoogleMaps,
							"openstreetmap": pt.ExternalViewURLs.OpenStreetMap,
						},
					}, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sessions": &graphql.Field{
				Type:        graphql.NewList(sessionType),
				Description: "List all live map sessions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.List(), nil
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a session by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, ok := deps.Sessions.Get(p.Args["id"].(string))
					if !ok {
						return nil, errors.New("session not found")
					}
					return s, nil
				},
			},
			"overlaySets": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "List stored overlay set slugs",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Overlays == nil {
						return nil, errors.New("overlay storage not configured")
					}
					return deps.Overlays.Sets(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
