// Package download holds the swagger document for the download service,
// written in swag's output layout from the handler annotations.
package download

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "LUO FILM Engineering"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "description": "Always 200 while the process is serving.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Probe",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {"$ref": "#/definitions/downloadsdk.HealthResponse"}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Reports whether the token store is reachable.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Probe",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {"$ref": "#/definitions/downloadsdk.HealthResponse"}
                    },
                    "503": {
                        "description": "store unreachable",
                        "schema": {"$ref": "#/definitions/downloadsdk.HealthResponse"}
                    }
                }
            }
        },
        "/v1/downloads": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Checks the user's subscription and issues a single-use download link valid for one hour.\nAdministrators are authorized without a subscription.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Downloads"],
                "summary": "Authorize Download",
                "parameters": [
                    {
                        "description": "Title to download",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/downloadsdk.DownloadRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "downloadUrl, token, expiresAt",
                        "schema": {"$ref": "#/definitions/downloadsdk.DownloadResponse"}
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "403": {
                        "description": "subscription_required with requiresSubscription=true, or access_denied",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "429": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/downloads/stream": {
            "get": {
                "description": "Spends the token and relays the film from its origin as an attachment.\nThe token is spent before the origin is contacted, so an upstream failure still consumes it.",
                "produces": ["application/octet-stream"],
                "tags": ["Downloads"],
                "summary": "Redeem Download Token",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Download token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "media bytes",
                        "schema": {"type": "file"}
                    },
                    "400": {
                        "description": "missing token",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "invalid_token, token_expired or token_already_used",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "500": {
                        "description": "upstream_fetch_failed or server_error",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/downloads/validate": {
            "get": {
                "description": "Checks a download token. A successful check spends the token; it cannot be validated or streamed again.",
                "produces": ["application/json"],
                "tags": ["Downloads"],
                "summary": "Validate Download Token",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Download token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "valid=true",
                        "schema": {"$ref": "#/definitions/downloadsdk.ValidateResponse"}
                    },
                    "400": {
                        "description": "missing token",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "invalid_token, token_expired or token_already_used",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/plans": {
            "get": {
                "description": "Returns the subscription catalogue, shortest plan first.",
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "List Plans",
                "responses": {
                    "200": {
                        "description": "plans",
                        "schema": {"$ref": "#/definitions/downloadsdk.PlansResponse"}
                    }
                }
            }
        },
        "/v1/profiles/{userId}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Creates or updates the user's profile. Administrators may download without a subscription.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Profiles"],
                "summary": "Set Administrator Flag",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "userId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Admin flag",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/downloadsdk.ProfileRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "userId, isAdmin",
                        "schema": {"$ref": "#/definitions/downloadsdk.ProfileResponse"}
                    },
                    "400": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "403": {
                        "description": "insufficient_scope",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/subscriptions/{userId}": {
            "get": {
                "description": "Reports whether the user may download now, and the stored subscription if any.\nA subscription found past its end date is marked inactive by this call.",
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Subscription Status",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "userId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "allowed, isAdmin, subscription",
                        "schema": {"$ref": "#/definitions/downloadsdk.SubscriptionResponse"}
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Activates a plan for the user starting now, replacing any previous subscription.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Grant Subscription",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "userId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Plan to grant",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/downloadsdk.GrantSubscriptionRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "allowed, subscription",
                        "schema": {"$ref": "#/definitions/downloadsdk.SubscriptionResponse"}
                    },
                    "400": {
                        "description": "invalid_request or unknown_plan",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "401": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "403": {
                        "description": "insufficient_scope",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "500": {
                        "description": "error, error_description",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "downloadsdk.DownloadRequest": {
            "type": "object",
            "properties": {
                "contentId": {"type": "string", "example": "c1"},
                "contentType": {"type": "string", "example": "movie"},
                "streamUrl": {"type": "string", "example": "https://cdn.example/film.mp4"},
                "title": {"type": "string", "example": "Demo"},
                "userId": {"type": "string", "example": "u2"}
            }
        },
        "downloadsdk.DownloadResponse": {
            "type": "object",
            "properties": {
                "downloadUrl": {"type": "string"},
                "expiresAt": {"type": "string", "example": "2026-05-04T11:00:00Z"},
                "message": {"type": "string", "example": "Download authorized"},
                "success": {"type": "boolean"},
                "token": {"type": "string"}
            }
        },
        "downloadsdk.GrantSubscriptionRequest": {
            "type": "object",
            "properties": {
                "planId": {"type": "string", "example": "1month"}
            }
        },
        "downloadsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "store": {"type": "string"}
            }
        },
        "downloadsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/downloadsdk.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "downloadsdk.Plan": {
            "type": "object",
            "properties": {
                "currency": {"type": "string", "example": "UGX"},
                "durationSeconds": {"type": "integer", "example": 2592000},
                "id": {"type": "string", "example": "1month"},
                "name": {"type": "string", "example": "1 Month"},
                "price": {"type": "integer", "example": 8000}
            }
        },
        "downloadsdk.PlansResponse": {
            "type": "object",
            "properties": {
                "plans": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/downloadsdk.Plan"}
                }
            }
        },
        "downloadsdk.ProfileRequest": {
            "type": "object",
            "properties": {
                "isAdmin": {"type": "boolean"}
            }
        },
        "downloadsdk.ProfileResponse": {
            "type": "object",
            "properties": {
                "isAdmin": {"type": "boolean"},
                "updatedAt": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "downloadsdk.Subscription": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "endDate": {"type": "string"},
                "planId": {"type": "string"},
                "startDate": {"type": "string"}
            }
        },
        "downloadsdk.SubscriptionResponse": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "isAdmin": {"type": "boolean"},
                "subscription": {"$ref": "#/definitions/downloadsdk.Subscription"},
                "userId": {"type": "string"}
            }
        },
        "downloadsdk.ValidateResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "valid": {"type": "boolean"}
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "requiresSubscription": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "LUO FILM Download Service API",
	Description:      "Issues single-use, one-hour download links to subscribers and relays the film when a link is redeemed.\n\nBearer authentication is optional. When enabled, download requests must come from the user they name and admin routes need the admin:write scope.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
