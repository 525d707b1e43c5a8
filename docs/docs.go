// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Pantry Lab",
            "url": "https://github.com/pantrylab/pantry-core/issues"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "User login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/dishes": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Search dishes by ingredients",
                "parameters": [
                    {"type": "string", "description": "Comma separated ingredients", "name": "ingredients", "in": "query", "required": true},
                    {"type": "string", "description": "Dish type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RatedEntity"}}},
                    "400": {"description": "No known ingredients", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Lifecycle"],
                "summary": "Propose a new dish",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.EntityDraft"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Missing capability", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/dishes/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get dish details",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/meals": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Search meals by ingredients",
                "parameters": [
                    {"type": "string", "description": "Comma separated ingredients", "name": "ingredients", "in": "query", "required": true},
                    {"type": "string", "description": "Meal type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RatedEntity"}}},
                    "400": {"description": "No known ingredients", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/meals/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get meal details",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Ingredient": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "unit": {"type": "string"},
                "amount": {"type": "number"}
            }
        },
        "domain.RatedEntity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "image": {"type": "string"},
                "ingredients": {"type": "array", "items": {"$ref": "#/definitions/domain.Ingredient"}},
                "provider": {"type": "string"},
                "relevance": {"type": "number"},
                "missingCount": {"type": "integer"},
                "type": {"type": "string"}
            }
        },
        "domain.EntityDraft": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "image": {"type": "string"},
                "description": {"type": "string"},
                "prepTime": {"type": "integer"},
                "ingredients": {"type": "array", "items": {"$ref": "#/definitions/domain.Ingredient"}},
                "type": {"type": "string"}
            }
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string", "example": "cook"},
                "password": {"type": "string", "example": "password123"}
            }
        },
        "domain.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid request body"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Pantry Core API",
	Description:      "Recipe discovery API. Search dishes and meals by the ingredients you have, across local and external catalogs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
