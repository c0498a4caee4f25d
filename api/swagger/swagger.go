package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Board API",
        "description": "Per-teacher daily lesson boards with gap-aware time cascades",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, session info"},
        {"name": "Boards", "description": "Day boards and event mutations"},
        {"name": "Adjustment", "description": "Cross-teacher batch sessions"},
        {"name": "Exports", "description": "Asynchronous day-sheet generation"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the caller's refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "User info", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}": {
            "get": {
                "tags": ["Boards"],
                "summary": "Every teacher's board for the date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Day board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/teachers/{teacherId}": {
            "get": {
                "tags": ["Boards"],
                "summary": "One teacher's queue with gap reports",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Teacher board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/teachers/{teacherId}/events": {
            "post": {
                "tags": ["Boards"],
                "summary": "Add a lesson via the slot heuristic",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/teachers/{teacherId}/location": {
            "put": {
                "tags": ["Boards"],
                "summary": "Relabel every event on one teacher's board",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/events/{eventId}/move": {
            "post": {
                "tags": ["Boards"],
                "summary": "Shift an event one step earlier or later",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DirectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/events/{eventId}/resize": {
            "post": {
                "tags": ["Boards"],
                "summary": "Grow or shrink an event by one step",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/events/{eventId}/reorder": {
            "post": {
                "tags": ["Boards"],
                "summary": "Swap an event with its neighbour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/events/{eventId}/close-gap": {
            "post": {
                "tags": ["Boards"],
                "summary": "Pull an event flush against its predecessor",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/events/{eventId}": {
            "delete": {
                "tags": ["Boards"],
                "summary": "Remove an event and recompact the tail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated board", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/adjustment": {
            "post": {
                "tags": ["Adjustment"],
                "summary": "Open a batch session for the date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Adjustment"],
                "summary": "Session status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Adjustment"],
                "summary": "Close the session without persisting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/adjustment/time": {
            "post": {
                "tags": ["Adjustment"],
                "summary": "Propose a synchronized start time",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No open session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/adjustment/commit": {
            "post": {
                "tags": ["Adjustment"],
                "summary": "Persist the session's changes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Applied change count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No open session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/boards/{date}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Queue a day-sheet export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "required": false, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "teacherId", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["start_time", "duration_minutes"],
            "properties": {
                "start_time": {"type": "string", "example": "09:00"},
                "duration_minutes": {"type": "integer"},
                "location": {"type": "string"},
                "status": {"type": "string", "enum": ["PLANNED", "TBC", "COMPLETED", "UNCOMPLETED"]}
            }
        },
        "DirectionRequest": {
            "type": "object",
            "required": ["direction"],
            "properties": {
                "direction": {"type": "string", "enum": ["EARLIER", "LATER"]}
            }
        },
        "TimeRequest": {
            "type": "object",
            "required": ["time"],
            "properties": {
                "time": {"type": "string", "example": "10:30"}
            }
        },
        "LocationRequest": {
            "type": "object",
            "required": ["location"],
            "properties": {
                "location": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
