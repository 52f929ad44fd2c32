// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/game/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["game"],
                "summary": "Start Game",
                "parameters": [
                    {"description": "Player and difficulty", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StartGameRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/game/match": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["game"],
                "summary": "Submit Match",
                "parameters": [
                    {"description": "Session and the two cards", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.MatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/game/complete": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["game"],
                "summary": "Complete Game",
                "parameters": [
                    {"description": "Session to complete", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CompleteGameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/game/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["game"],
                "summary": "Get Game",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/scores/{username}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scores"],
                "summary": "Get Player Stats",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scores"],
                "summary": "Get Leaderboard",
                "parameters": [
                    {"type": "integer", "description": "Limit results (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/leaderboard/fresh": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scores"],
                "summary": "Get Fresh Leaderboard",
                "parameters": [
                    {"type": "integer", "description": "Limit results (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        },
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/shared.Response"}}
                }
            }
        }
    },
    "definitions": {
        "dto.StartGameRequest": {
            "type": "object",
            "required": ["difficulty", "username"],
            "properties": {
                "username": {"type": "string", "example": "memory_master"},
                "difficulty": {"type": "string", "example": "easy"},
                "categories": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.MatchRequest": {
            "type": "object",
            "required": ["card1_id", "card2_id", "session_id"],
            "properties": {
                "session_id": {"type": "string"},
                "card1_id": {"type": "string"},
                "card2_id": {"type": "string"}
            }
        },
        "dto.CompleteGameRequest": {
            "type": "object",
            "required": ["session_id"],
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "shared.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PairUp API",
	Description:      "Memory-match game sessions, scoring and leaderboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
