// Package docs registers the OpenAPI description served at /docs.
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
        "/agents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "List agents",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/agents/events": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Log an agent event",
                "parameters": [
                    {"description": "Event", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LogEventRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/agents/{agent}": {
            "post": {
                "description": "Validates the payload and returns generated content. Provider failures degrade to fallback content.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Run an agent",
                "parameters": [
                    {"type": "string", "description": "Agent name", "name": "agent", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/agent.Result"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/jobs/runs/latest/{job}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get the latest run of a job",
                "parameters": [
                    {"type": "string", "description": "Job name", "name": "job", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/jobs/runs/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job run",
                "parameters": [
                    {"type": "string", "description": "Run id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/jobs/{job}": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Trigger a batch job",
                "parameters": [
                    {"type": "string", "description": "Job name", "name": "job", "in": "path", "required": true},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Items to process", "name": "item", "in": "query"}
                ],
                "responses": {"202": {"description": "Accepted"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}}
            }
        },
        "/news": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "List news items",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/seo/pages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "List SEO pages",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/seo/pages/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Get an SEO page",
                "parameters": [
                    {"type": "string", "description": "Page slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/deep": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Readiness probe with dependency checks",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "agent.Meta": {
            "type": "object",
            "properties": {
                "requestId": {"type": "string"},
                "isFallback": {"type": "boolean"},
                "provider": {"type": "string", "enum": ["anthropic", "fallback", "fallback_after_error"]},
                "model": {"type": "string"},
                "usage": {"$ref": "#/definitions/agent.Usage"}
            }
        },
        "agent.Result": {
            "type": "object",
            "properties": {
                "output": {"type": "object", "additionalProperties": {"type": "string"}},
                "meta": {"$ref": "#/definitions/agent.Meta"}
            }
        },
        "agent.Usage": {
            "type": "object",
            "properties": {
                "inputTokens": {"type": "integer"},
                "outputTokens": {"type": "integer"}
            }
        },
        "handlers.LogEventRequest": {
            "type": "object",
            "properties": {
                "agentId": {"type": "string"},
                "eventType": {"type": "string"},
                "userId": {"type": "string"},
                "sessionId": {"type": "string"},
                "payload": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "toolsdir API",
	Description:      "Content agents, agent event log and batch generation jobs for the AI tools directory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
