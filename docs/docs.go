// Package docs registers the OpenAPI document served under /swagger.
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
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register an academy",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.RegistrationRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RegisterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/login/token": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Issue a bearer token",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UserProfile"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/billing/create-checkout-session": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Start a subscription checkout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/billing.CheckoutSession"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/billing/stripe-webhook": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Billing provider notifications",
                "parameters": [{"type": "string", "name": "Stripe-Signature", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/admin/tenants": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List tenants",
                "parameters": [
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListTenantsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/alunos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"type": "string", "name": "X-Tenant-ID", "in": "header", "required": true},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.StudentResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Students"],
                "summary": "Create a student",
                "parameters": [
                    {"type": "string", "name": "X-Tenant-ID", "in": "header", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.StudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.StudentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/api/alunos/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Students"],
                "summary": "Get a student",
                "parameters": [
                    {"type": "string", "name": "X-Tenant-ID", "in": "header", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StudentResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Students"],
                "summary": "Delete a student",
                "parameters": [
                    {"type": "string", "name": "X-Tenant-ID", "in": "header", "required": true},
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "object", "properties": {
                    "code": {"type": "string"},
                    "message": {"type": "string"},
                    "details": {"type": "object", "additionalProperties": {"type": "string"}}
                }}
            }
        },
        "services.RegistrationRequest": {
            "type": "object",
            "properties": {
                "tenant_name": {"type": "string"},
                "owner_email": {"type": "string"},
                "owner_cpf": {"type": "string"},
                "owner_password": {"type": "string"},
                "owner_password_confirm": {"type": "string"}
            }
        },
        "handlers.RegisterResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "schema_name": {"type": "string"}}
        },
        "models.TokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}, "expires_in": {"type": "integer"}}
        },
        "models.UserProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "cpf": {"type": "string"},
                "is_saas_admin": {"type": "boolean"},
                "tenant_id": {"type": "string"},
                "created_at": {"type": "string"},
                "tenant": {"type": "object"}
            }
        },
        "billing.CheckoutSession": {
            "type": "object",
            "properties": {"sessionId": {"type": "string"}, "url": {"type": "string"}}
        },
        "handlers.WebhookResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "result": {"type": "string"}}
        },
        "handlers.ListTenantsResponse": {
            "type": "object",
            "properties": {"tenants": {"type": "array", "items": {"type": "object"}}, "limit": {"type": "integer"}, "offset": {"type": "integer"}}
        },
        "handlers.StudentRequest": {
            "type": "object",
            "properties": {
                "nome_completo": {"type": "string", "example": "Maria Silva"},
                "data_nascimento": {"type": "string", "example": "2010-05-04"},
                "cpf": {"type": "string"},
                "whatsapp": {"type": "string"},
                "nome_responsavel": {"type": "string"},
                "contato_responsavel": {"type": "string"},
                "dia_vencimento": {"type": "integer", "example": 10},
                "receber_notificacoes": {"type": "boolean"},
                "modalidade": {"type": "string"},
                "faixa": {"type": "string"}
            }
        },
        "handlers.StudentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "foto_url": {"type": "string"},
                "nome_completo": {"type": "string"},
                "data_nascimento": {"type": "string"},
                "cpf": {"type": "string"},
                "whatsapp": {"type": "string"},
                "nome_responsavel": {"type": "string"},
                "contato_responsavel": {"type": "string"},
                "dia_vencimento": {"type": "integer"},
                "receber_notificacoes": {"type": "boolean"},
                "modalidade": {"type": "string"},
                "faixa": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Gym Manager API",
	Description:      "Multi-tenant gym management backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
