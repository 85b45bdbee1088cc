// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        },
        "/api/youtube/ad-status": {
            "get": {
                "description": "Download count for the caller and the distance to the next ad",
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Get ad gate status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.AdStatusResponse"}
                    }
                }
            }
        },
        "/api/youtube/ad-watched": {
            "post": {
                "description": "Always succeeds. The counter is cyclic, so the next ad is due at the next multiple regardless.",
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Acknowledge a watched advertisement",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.AdAckResponse"}
                    }
                }
            }
        },
        "/api/youtube/download": {
            "get": {
                "description": "Convert a single video to an audio file and stream it. Ad gate state is returned in the X-Requires-Ad, X-Downloads-Count and X-Downloads-Until-Ad headers.",
                "produces": ["audio/mpeg", "audio/mp4"],
                "tags": ["youtube"],
                "summary": "Download a video as audio",
                "parameters": [
                    {"type": "string", "description": "Video URL", "name": "url", "in": "query", "required": true},
                    {"type": "string", "default": "low", "description": "high, medium or low", "name": "quality", "in": "query"},
                    {"type": "string", "default": "mp3", "description": "mp3, m4a or mp4", "name": "format", "in": "query"},
                    {"type": "boolean", "default": false, "description": "Embed tags and cover art", "name": "addMetadata", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "file"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/api/youtube/info": {
            "get": {
                "description": "Resolve metadata for a single video, or list the members of a playlist URL",
                "produces": ["application/json"],
                "tags": ["youtube"],
                "summary": "Get video or playlist information",
                "parameters": [
                    {"type": "string", "description": "Video or playlist URL", "name": "url", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.InfoResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check the scratch directory and any configured cache or archive backend",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check endpoint",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    }
                }
            }
        },
        "/live": {
            "get": {
                "description": "Check if the service is alive",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check endpoint",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Check if the service is ready to accept downloads",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check endpoint",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": true}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "services": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/handlers.ServiceHealth"}
                },
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "handlers.ServiceHealth": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "response_time": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "models.AdAckResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "models.AdStatusResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "downloadsUntilAd": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "error": {"type": "boolean"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "models.InfoResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "success": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Audio Grab API",
	Description:      "Extracts audio tracks from online videos and streams them back as tagged files.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
