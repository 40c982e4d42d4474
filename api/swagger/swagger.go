package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Event Catalog API",
        "description": "Searchable catalog of events and their owning centers, backed by a versioned document store",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Events", "description": "Event query and mutation"},
        {"name": "Centers", "description": "Center directory"},
        {"name": "Auth", "description": "Token issuance"},
        {"name": "Admin", "description": "Operational endpoints"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "Query events",
                "parameters": [
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "stop", "in": "query", "type": "string"},
                    {"name": "center", "in": "query", "type": "string"},
                    {"name": "country", "in": "query", "type": "string"},
                    {"name": "skip", "in": "query", "type": "integer"},
                    {"name": "count", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create or update an event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get one event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/export": {
            "get": {
                "tags": ["Events"],
                "summary": "Export events as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "stop", "in": "query", "type": "string"},
                    {"name": "center", "in": "query", "type": "string"},
                    {"name": "country", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/centers": {
            "get": {
                "tags": ["Centers"],
                "summary": "List all centers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/centers/{id}": {
            "get": {
                "tags": ["Centers"],
                "summary": "Get one center",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Centers"],
                "summary": "Partially update a center",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CenterUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/pull": {
            "post": {
                "tags": ["Admin"],
                "summary": "Pull new history into the document store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Event": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "center": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "startTime": {"type": "string"},
                "name": {"type": "string"},
                "address": {"type": "string"},
                "description": {"type": "string"},
                "weekdayRange": {"type": "string"},
                "dateRange": {"type": "string"},
                "combinedRange": {"type": "string"},
                "fullcity": {"type": "string"}
            }
        },
        "EventUpdate": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "center": {"type": "string"},
                "title": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "startTime": {"type": "string"},
                "name": {"type": "string"},
                "address": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "Center": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "address": {"type": "string"},
                "country": {"type": "string"},
                "program": {"type": "string"},
                "about": {"type": "string"},
                "fullcity": {"type": "string"},
                "mapUrl": {"type": "string"}
            }
        },
        "CenterUpdate": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "address": {"type": "string"},
                "program": {"type": "string"},
                "about": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["userId", "password"]
        },
        "QueryResult": {
            "type": "object",
            "properties": {
                "totalCount": {"type": "integer"},
                "events": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Event"}
                }
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
                "meta": {"type": "object"}
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
