package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Training Center Scheduling API",
        "description": "Class session generation, resource and time slot assignment.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Sessions", "description": "Weekday pattern expansion into dated sessions"},
        {"name": "Resources", "description": "Room and lab assignment with conflict detection"},
        {"name": "Time Slots", "description": "Time slot template assignment"},
        {"name": "Policies", "description": "Scheduling policy values"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/classes/{id}/sessions/generate": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Generate class sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateSessionsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Sessions already generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/sessions/preview": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Preview session expansion",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateSessionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List class sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["PLANNED", "COMPLETED", "CANCELLED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/resources/assign": {
            "post": {
                "tags": ["Resources"],
                "summary": "Assign resources by weekday pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignResourcesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class or resource not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Resource belongs to another branch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/resources/preview": {
            "post": {
                "tags": ["Resources"],
                "summary": "Preview resource conflicts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignResourcesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/resources/preview/export": {
            "post": {
                "tags": ["Resources"],
                "summary": "Export a conflict preview",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignResourcesRequest"}}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/classes/{id}/time-slots/assign": {
            "post": {
                "tags": ["Time Slots"],
                "summary": "Assign time slot templates by weekday",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignTimeSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/resources/{id}/suggestions": {
            "get": {
                "tags": ["Resources"],
                "summary": "Rank alternatives to a resource for a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "classId", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/policies": {
            "get": {
                "tags": ["Policies"],
                "summary": "List scheduling policies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Policies"],
                "summary": "Update a scheduling policy",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePolicyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/system": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Scheduling engine metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSlotPatternEntry": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "timeSlotTemplateId": {"type": "integer"}
            }
        },
        "ResourcePatternEntry": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "resourceId": {"type": "integer"}
            }
        },
        "GenerateSessionsRequest": {
            "type": "object",
            "required": ["daysOfWeek"],
            "properties": {
                "startDate": {"type": "string", "format": "date"},
                "daysOfWeek": {"type": "array", "items": {"type": "integer"}},
                "totalSessions": {"type": "integer"},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlotPatternEntry"}}
            }
        },
        "AssignResourcesRequest": {
            "type": "object",
            "required": ["pattern"],
            "properties": {
                "pattern": {"type": "array", "items": {"$ref": "#/definitions/ResourcePatternEntry"}},
                "skipConflictCheck": {"type": "boolean"}
            }
        },
        "AssignTimeSlotsRequest": {
            "type": "object",
            "required": ["assignments"],
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/TimeSlotPatternEntry"}}
            }
        },
        "UpdatePolicyRequest": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
                "key": {"type": "string"},
                "value": {"type": "string"}
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
