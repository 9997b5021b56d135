package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/kitsu/internal/buildinfo"
	"github.com/Guilhem-Bonnet/kitsu/internal/httpjson"
)

// handleOpenAPI renvoie une description OpenAPI minimale de l'API locale.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, openAPIDocument())
}

func openAPIDocument() map[string]any {
	ref := func(name string) map[string]any {
		return map[string]any{"$ref": "#/components/schemas/" + name}
	}
	jsonOK := func(schema map[string]any) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{"schema": schema},
			},
		}
	}
	jsonBody := func(schemaName string) map[string]any {
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": ref(schemaName)},
			},
		}
	}
	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{"schema": ref("Error")},
		},
	}
	envelope := jsonOK(ref("Envelope"))
	catalogGet := func(params ...map[string]any) map[string]any {
		op := map[string]any{"responses": map[string]any{"200": envelope, "502": envelope}}
		if len(params) > 0 {
			op["parameters"] = params
		}
		return map[string]any{"get": op}
	}
	pathParam := func(name string) map[string]any {
		return map[string]any{"name": name, "in": "path", "required": true, "schema": map[string]any{"type": "string"}}
	}
	queryParam := func(name string, required bool) map[string]any {
		return map[string]any{"name": name, "in": "query", "required": required, "schema": map[string]any{"type": "string"}}
	}
	page := map[string]any{"name": "page", "in": "query", "schema": map[string]any{"type": "integer", "minimum": 1}}

	watchStatus := map[string]any{"type": "string", "enum": []any{"WATCHING", "COMPLETED", "PLAN_TO_WATCH"}}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "kitsu local API",
			"version": buildinfo.Version,
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
						"code":  map[string]any{"type": "string"},
					},
					"required": []any{"error"},
				},
				"Envelope": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"success": map[string]any{"type": "boolean"},
						"status":  map[string]any{"type": "integer"},
						"data":    map[string]any{"type": "object", "additionalProperties": true},
					},
					"required": []any{"success", "status"},
				},
				"WatchlistEntry": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"animeId":        map[string]any{"type": "string"},
						"title":          map[string]any{"type": "string"},
						"posterUrl":      map[string]any{"type": "string"},
						"currentEpisode": map[string]any{"type": "integer", "minimum": 0},
						"totalEpisodes":  map[string]any{"type": "integer", "nullable": true},
						"status":         watchStatus,
						"addedAt":        map[string]any{"type": "string", "format": "date-time"},
						"lastUpdated":    map[string]any{"type": "string", "format": "date-time"},
						"type":           map[string]any{"type": "string"},
					},
					"required": []any{"animeId", "title", "currentEpisode", "status", "addedAt", "lastUpdated"},
				},
				"AddRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"animeId":       map[string]any{"type": "string"},
						"title":         map[string]any{"type": "string"},
						"posterUrl":     map[string]any{"type": "string"},
						"totalEpisodes": map[string]any{"type": "integer", "minimum": 0},
						"type":          map[string]any{"type": "string"},
						"status":        watchStatus,
					},
					"required": []any{"animeId", "title"},
				},
				"WatchlistStats": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"total":        map[string]any{"type": "integer"},
						"byStatus":     map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "integer"}},
						"recentTitles": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
				"Preferences": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"theme":             map[string]any{"type": "string", "enum": []any{"system", "dark", "light"}},
						"preferredServer":   map[string]any{"type": "string"},
						"preferredCategory": map[string]any{"type": "string"},
					},
				},
				"User": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"displayName": map[string]any{"type": "string"},
						"email":       map[string]any{"type": "string"},
					},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health":       map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/version":      map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/openapi.json": map[string]any{"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}}},
			"/api/v1/events": map[string]any{
				"get": map[string]any{
					"parameters": []any{queryParam("topic", false)},
					"responses":  map[string]any{"200": map[string]any{"description": "SSE"}},
				},
			},

			"/api/v1/catalog/home":                    catalogGet(),
			"/api/v1/catalog/search":                  catalogGet(queryParam("q", true), page),
			"/api/v1/catalog/suggestions":             catalogGet(queryParam("q", true)),
			"/api/v1/catalog/schedule":                catalogGet(queryParam("date", true)),
			"/api/v1/catalog/genre/{name}":            catalogGet(pathParam("name"), page),
			"/api/v1/catalog/category/{name}":         catalogGet(pathParam("name"), page),
			"/api/v1/catalog/az/{name}":               catalogGet(pathParam("name"), page),
			"/api/v1/catalog/anime/{id}":              catalogGet(pathParam("id")),
			"/api/v1/catalog/anime/{id}/episodes":     catalogGet(pathParam("id")),
			"/api/v1/catalog/anime/{id}/characters":   catalogGet(pathParam("id")),
			"/api/v1/catalog/anime/{id}/next-episode": catalogGet(pathParam("id")),
			"/api/v1/catalog/episode/servers":         catalogGet(queryParam("id", true)),
			"/api/v1/catalog/episode/sources":         catalogGet(queryParam("id", true), queryParam("server", false), queryParam("category", false)),

			"/api/v1/watchlist": map[string]any{
				"get": map[string]any{
					"parameters": []any{queryParam("status", false)},
					"responses":  map[string]any{"200": jsonOK(map[string]any{"type": "array", "items": ref("WatchlistEntry")}), "400": jsonErr},
				},
				"post": map[string]any{
					"requestBody": jsonBody("AddRequest"),
					"responses":   map[string]any{"201": jsonOK(ref("WatchlistEntry")), "400": jsonErr},
				},
			},
			"/api/v1/watchlist/stats": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK(ref("WatchlistStats"))}},
			},
			"/api/v1/watchlist/toggle": map[string]any{
				"post": map[string]any{
					"requestBody": jsonBody("AddRequest"),
					"responses":   map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr},
				},
			},
			"/api/v1/watchlist/{id}": map[string]any{
				"get":    map[string]any{"parameters": []any{pathParam("id")}, "responses": map[string]any{"200": jsonOK(ref("WatchlistEntry")), "404": jsonErr}},
				"delete": map[string]any{"parameters": []any{pathParam("id")}, "responses": map[string]any{"204": map[string]any{"description": "Deleted"}, "404": jsonErr}},
			},
			"/api/v1/watchlist/{id}/watch": map[string]any{
				"get": map[string]any{
					"summary":    "SSE: events entry / removed for one anime",
					"parameters": []any{pathParam("id")},
					"responses": map[string]any{"200": map[string]any{
						"description": "Event stream",
						"content":     map[string]any{"text/event-stream": map[string]any{"schema": map[string]any{"type": "string"}}},
					}},
				},
			},
			"/api/v1/watchlist/{id}/progress": map[string]any{
				"put": map[string]any{"parameters": []any{pathParam("id")}, "responses": map[string]any{"200": jsonOK(ref("WatchlistEntry")), "400": jsonErr, "404": jsonErr}},
			},
			"/api/v1/watchlist/{id}/status": map[string]any{
				"put": map[string]any{"parameters": []any{pathParam("id")}, "responses": map[string]any{"200": jsonOK(ref("WatchlistEntry")), "400": jsonErr, "404": jsonErr}},
			},

			"/api/v1/settings": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK(ref("Preferences")), "500": jsonErr}},
				"put": map[string]any{
					"requestBody": jsonBody("Preferences"),
					"responses":   map[string]any{"200": jsonOK(ref("Preferences")), "400": jsonErr, "500": jsonErr},
				},
			},
			"/api/v1/session": map[string]any{
				"get":    map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
				"post":   map[string]any{"requestBody": jsonBody("User"), "responses": map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr}},
				"delete": map[string]any{"responses": map[string]any{"204": map[string]any{"description": "Signed out"}}},
			},
		},
	}
}
