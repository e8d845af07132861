// Package api/openapi provides the OpenAPI 3.0 specification and documentation page.
//
// INTEGRATION POINTS:
// - internal/api/server.go: every route registered in Handler() is documented in getOpenAPISpec()
// - internal/validation/validator.go: request schemas mirror the validation schemas
// - internal/errors/handlers.go: ErrorResponse schema matches HTTPErrorHandler.FormatError() output
// - Swagger UI CDN: Uses unpkg.com CDN for Swagger UI assets in handleOpenAPI()
package api

import (
	"encoding/json"
	"net/http"
)

// handleOpenAPI serves the OpenAPI documentation interface
func (s *APIServer) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	// Simple HTML documentation page
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Pocket Placeholders API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui.css" />
    <style>
        html { box-sizing: border-box; overflow: -moz-scrollbars-vertical; overflow-y: scroll; }
        *, *:before, *:after { box-sizing: inherit; }
        body { margin:0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            const ui = SwaggerUIBundle({
                url: '/api/openapi.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.presets.standalone
                ],
                plugins: [
                    SwaggerUIBundle.plugins.DownloadUrl
                ],
                layout: "StandaloneLayout"
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// handleOpenAPISpec serves the OpenAPI JSON specification
func (s *APIServer) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	spec := getOpenAPISpec()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(spec)
}

// getOpenAPISpec returns the OpenAPI 3.0 specification
func getOpenAPISpec() map[string]interface{} {
	userHeader := map[string]interface{}{
		"name":        UserHeader,
		"in":          "header",
		"description": "Id of the user the request acts for",
		"schema":      map[string]interface{}{"type": "string"},
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Pocket Placeholders API",
			"description": "List placeholder tokens and substitute them with live values",
			"version":     "1.0.0",
		},
		"servers": []map[string]interface{}{
			{
				"url":         "http://localhost:8080/api/v1",
				"description": "Development server",
			},
		},
		"paths": map[string]interface{}{
			"/placeholders": map[string]interface{}{
				"get": operation("List placeholders", "Placeholders in display order, most recent contributions first",
					"PlaceholderList",
					queryParam("owner", "Owner slug to filter by"),
					queryParam("format", "text, table, json or yaml")),
			},
			"/owners": map[string]interface{}{
				"get": operation("List owners", "Owner groups used to filter placeholders", "OwnerList"),
			},
			"/search": map[string]interface{}{
				"get": operation("Search placeholders", "Fuzzy search over token, label and owner",
					"PlaceholderList", queryParam("q", "Search query")),
			},
			"/substitute": map[string]interface{}{
				"post": withBody(operation("Substitute content",
					"Replace tokens with the values for the given or authenticated user. Unknown users yield 404.",
					"SubstituteResult", userHeader), "SubstituteRequest"),
			},
			"/values": map[string]interface{}{
				"get": operation("Resolve values", "Current value of every resolvable token",
					"Values", queryParam("user", "User id"), userHeader),
			},
			"/lint": map[string]interface{}{
				"post": withBody(operation("Lint content", "Report tokens that no placeholder is registered for",
					"FindingList"), "LintRequest"),
			},
			"/users": map[string]interface{}{
				"get": operation("List users", "User profiles", "UserList"),
			},
			"/users/{id}": map[string]interface{}{
				"get": operation("Get user", "A single user profile", "User", map[string]interface{}{
					"name":     "id",
					"in":       "path",
					"required": true,
					"schema":   map[string]interface{}{"type": "string"},
				}),
			},
			"/packs": map[string]interface{}{
				"get": operation("List packs", "Extension packs contributing placeholders", "PackList"),
			},
			"/health": map[string]interface{}{
				"get": operation("Health check", "Service health status", "Health"),
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Placeholder": object(map[string]interface{}{
					"token": str("Token such as ${DATE}"),
					"label": str("Human readable label"),
					"owner": str("Owner grouping tag"),
				}),
				"PlaceholderList": arrayOf("Placeholder"),
				"Owner": object(map[string]interface{}{
					"slug": str("URL friendly owner id"),
					"name": str("Owner name"),
				}),
				"OwnerList": arrayOf("Owner"),
				"SubstituteRequest": object(map[string]interface{}{
					"content": str("Content containing tokens"),
					"user":    str("User id; defaults to the X-User-ID session"),
					"values": map[string]interface{}{
						"type":                 "object",
						"additionalProperties": map[string]interface{}{"type": "string"},
						"description":          "Extra values replaced literally by key; a bare NAME key also fills ${NAME}",
					},
					"format": str("text, json or markdown"),
				}),
				"SubstituteResult": object(map[string]interface{}{
					"content":    str("Substituted content"),
					"user":       str("User the values were resolved for"),
					"unresolved": map[string]interface{}{"type": "array", "items": str("Token")},
					"findings":   arrayOf("Finding"),
					"rendered":   str("Terminal markdown, when format is markdown"),
				}),
				"Values": map[string]interface{}{
					"type":                 "object",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
				"LintRequest": object(map[string]interface{}{
					"content": str("Content to check"),
				}),
				"Finding": object(map[string]interface{}{
					"token":      str("Unknown token"),
					"offset":     map[string]interface{}{"type": "integer"},
					"suggestion": str("Closest registered token"),
				}),
				"FindingList": arrayOf("Finding"),
				"User": object(map[string]interface{}{
					"id":           str("User id"),
					"login":        str("Login name"),
					"display_name": str("Display name"),
					"first_name":   str("First name"),
					"last_name":    str("Last name"),
					"email":        str("Email address"),
				}),
				"UserList": arrayOf("User"),
				"Pack": object(map[string]interface{}{
					"owner":        str("Owner the pack contributes under"),
					"description":  str("Description"),
					"placeholders": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
				}),
				"PackList": arrayOf("Pack"),
				"Health": map[string]interface{}{"type": "object"},
				"ErrorResponse": object(map[string]interface{}{
					"success": map[string]interface{}{"type": "boolean"},
					"error": object(map[string]interface{}{
						"code":      str("Error code such as USER_NOT_FOUND"),
						"message":   str("Error message"),
						"details":   str("Details"),
						"timestamp": str("Time of the error"),
					}),
				}),
			},
		},
	}
}

func operation(summary, description, schema string, params ...map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     summary,
		"description": description,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "Success",
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"success":   map[string]interface{}{"type": "boolean"},
								"data":      ref(schema),
								"message":   str("Summary"),
								"timestamp": str("Response time"),
							},
						},
					},
				},
			},
			"default": map[string]interface{}{
				"description": "Error",
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{"schema": ref("ErrorResponse")},
				},
			},
		},
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func withBody(op map[string]interface{}, schema string) map[string]interface{} {
	op["requestBody"] = map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": ref(schema)},
		},
	}
	return op
}

func queryParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"schema":      map[string]interface{}{"type": "string"},
	}
}

func ref(schema string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + schema}
}

func arrayOf(schema string) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": ref(schema)}
}

func object(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": properties}
}

func str(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}
