package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

func roomToMap(r domain.Room) map[string]interface{} {
	p := r.Properties
	m := map[string]interface{}{
		"id":       int(p.ID),
		"title":    p.Title,
		"price":    p.Price,
		"roomType": string(p.RoomType),
		"status":   string(p.Status),
		"location": coordToMap(r.Location()),
	}
	if p.Area != nil {
		m["area"] = *p.Area
	}
	if p.Address != nil {
		m["address"] = *p.Address
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.PhoneFormatted != nil {
		m["phone"] = *p.PhoneFormatted
	} else if p.Phone != nil {
		m["phone"] = *p.Phone
	}
	return m
}

func coordToMap(c domain.Coordinate) map[string]interface{} {
	return map[string]interface{}{"lat": c.Lat, "lon": c.Lon}
}

// optionalArg returns a float argument if the caller set it.
func optionalArg(args map[string]interface{}, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

func pointArg(args map[string]interface{}, latKey, lonKey string) (*domain.Coordinate, error) {
	lat, lon := optionalArg(args, latKey), optionalArg(args, lonKey)
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, errors.New(latKey + " and " + lonKey + " must be given together")
	}
	at := domain.Coord(*lon, *lat)
	return &at, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	roomType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Room",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.Int},
			"title":       &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.Float},
			"area":        &graphql.Field{Type: graphql.Float},
			"address":     &graphql.Field{Type: graphql.String},
			"roomType":    &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"phone":       &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
		},
	})

	radiusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RadiusQuery",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Float},
			"radius": &graphql.Field{Type: graphql.Float},
		},
	})

	directionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Directions",
		Fields: graphql.Fields{
			"mode":         &graphql.Field{Type: graphql.String},
			"modeLabel":    &graphql.Field{Type: graphql.String},
			"distance":     &graphql.Field{Type: graphql.Float},
			"duration":     &graphql.Field{Type: graphql.Float},
			"distanceText": &graphql.Field{Type: graphql.String},
			"durationText": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"rooms": &graphql.Field{
				Type:        graphql.NewList(roomType),
				Description: "Search rooms by address or around a point",
				Args: graphql.FieldConfigArgument{
					"address":       &graphql.ArgumentConfig{Type: graphql.String},
					"addressRadius": &graphql.ArgumentConfig{Type: graphql.Float},
					"lat":           &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":           &graphql.ArgumentConfig{Type: graphql.Float},
					"radius":        &graphql.ArgumentConfig{Type: graphql.Float},
					"minPrice":      &graphql.ArgumentConfig{Type: graphql.Float},
					"maxPrice":      &graphql.ArgumentConfig{Type: graphql.Float},
					"minArea":       &graphql.ArgumentConfig{Type: graphql.Float},
					"maxArea":       &graphql.ArgumentConfig{Type: graphql.Float},
					"roomType":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					near, err := pointArg(p.Args, "lat", "lon")
					if err != nil {
						return nil, err
					}
					params := domain.RoomSearchParams{
						Near:     near,
						MinPrice: optionalArg(p.Args, "minPrice"),
						MaxPrice: optionalArg(p.Args, "maxPrice"),
						MinArea:  optionalArg(p.Args, "minArea"),
						MaxArea:  optionalArg(p.Args, "maxArea"),
					}
					params.Address, _ = p.Args["address"].(string)
					if v := optionalArg(p.Args, "addressRadius"); v != nil {
						params.AddressRadius = *v
					}
					if v := optionalArg(p.Args, "radius"); v != nil {
						params.Radius = *v
					}
					if t, ok := p.Args["roomType"].(string); ok {
						params.RoomType = domain.RoomType(t)
					}

					rooms, err := deps.Rooms.Search(p.Context, params)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(rooms))
					for _, r := range rooms {
						out = append(out, roomToMap(r))
					}
					return out, nil
				},
			},
			"room": &graphql.Field{
				Type:        roomType,
				Description: "Get a room by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					room, err := deps.Rooms.GetByID(p.Context, int64(p.Args["id"].(int)))
					if err != nil {
						return nil, err
					}
					return roomToMap(*room), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        geoPointType,
				Description: "Forward geocode an address",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					at, err := deps.Geocoding.Forward(p.Context, p.Args["address"].(string))
					if err != nil {
						return nil, err
					}
					return coordToMap(*at), nil
				},
			},
			"reverseGeocode": &graphql.Field{
				Type:        graphql.String,
				Description: "Name the place at a coordinate",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					at := domain.Coord(p.Args["lon"].(float64), p.Args["lat"].(float64))
					return deps.Geocoding.Reverse(p.Context, at)
				},
			},
			"directions": &graphql.Field{
				Type:        directionsType,
				Description: "Best route between two points",
				Args: graphql.FieldConfigArgument{
					"fromLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"fromLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"mode":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "driving"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode, err := domain.ParseTravelMode(p.Args["mode"].(string))
					if err != nil {
						return nil, err
					}
					from := domain.Coord(p.Args["fromLon"].(float64), p.Args["fromLat"].(float64))
					to := domain.Coord(p.Args["toLon"].(float64), p.Args["toLat"].(float64))
					d, err := deps.Directions.Route(p.Context, mode, from, to)
					if err != nil {
						return nil, err
					}
					v := directionsView(d)
					out := map[string]interface{}{
						"mode":         string(d.Mode),
						"modeLabel":    v.ModeLabel,
						"distanceText": v.DistanceText,
						"durationText": v.DurationText,
					}
					if len(d.Routes) > 0 {
						out["distance"] = d.Routes[0].Distance
						out["duration"] = d.Routes[0].Duration
					}
					return out, nil
				},
			},
			"viewportRadius": &graphql.Field{
				Type:        radiusType,
				Description: "Reconciled search radius for a viewport",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom":      &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"neLat":     &graphql.ArgumentConfig{Type: graphql.Float},
					"neLon":     &graphql.ArgumentConfig{Type: graphql.Float},
					"originLat": &graphql.ArgumentConfig{Type: graphql.Float},
					"originLon": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ne, err := pointArg(p.Args, "neLat", "neLon")
					if err != nil {
						return nil, err
					}
					origin, err := pointArg(p.Args, "originLat", "originLon")
					if err != nil {
						return nil, err
					}
					vp := domain.ViewportState{
						Center:    domain.Coord(p.Args["lon"].(float64), p.Args["lat"].(float64)),
						Zoom:      p.Args["zoom"].(float64),
						NorthEast: ne,
					}
					q := viewport.Candidate(origin, vp)
					return map[string]interface{}{
						"center": coordToMap(q.Center),
						"zoom":   q.Zoom,
						"radius": q.RadiusMeters,
					}, nil
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
