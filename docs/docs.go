// Package docs registers the OpenAPI description of the simulator API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/simulations": {
            "get": {"tags": ["simulations"], "summary": "List simulations", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["simulations"], "summary": "Create a simulation", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "simulation", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSimulation"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/simulations/{id}": {
            "get": {"tags": ["simulations"], "summary": "Get a simulation", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["simulations"], "summary": "Delete a simulation", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/simulations/{id}/history": {
            "get": {"tags": ["simulations"], "summary": "Operation history", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/simulations/{id}/balance": {
            "post": {"tags": ["balance"], "summary": "Apply a balance operation",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "operation", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BalanceOperation"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "422": {"description": "Insufficient funds"}}}
        },
        "/simulations/{id}/purchase": {
            "post": {"tags": ["trading"], "summary": "Buy an asset",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "trade", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TradeRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "422": {"description": "Insufficient funds"}, "502": {"description": "Price or rate unavailable"}}}
        },
        "/simulations/{id}/sell": {
            "post": {"tags": ["trading"], "summary": "Sell an asset",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "trade", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TradeRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "422": {"description": "Insufficient position"}, "502": {"description": "Price or rate unavailable"}}}
        },
        "/simulations/{id}/holdings": {
            "get": {"tags": ["holdings"], "summary": "List holdings", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/simulations/{id}/holdings/refresh": {
            "post": {"tags": ["holdings"], "summary": "Revalue holdings", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}}}
        },
        "/simulations/{id}/summary": {
            "get": {"tags": ["holdings"], "summary": "Portfolio summary", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/simulations/{id}/advance": {
            "get": {"tags": ["time"], "summary": "Check whether the simulation can advance", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"tags": ["time"], "summary": "Advance one month", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Advance blocked"}, "502": {"description": "Bad Gateway"}}}
        },
        "/simulations/{id}/snapshot": {
            "get": {"tags": ["snapshot"], "summary": "Describe the undo checkpoint", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"tags": ["snapshot"], "summary": "Capture the undo checkpoint", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}}}
        },
        "/simulations/{id}/snapshot/restore": {
            "post": {"tags": ["snapshot"], "summary": "Undo to the checkpoint", "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Snapshot is ahead of the simulation"}}}
        }
    },
    "parameters": {
        "id": {"type": "string", "description": "Simulation ID", "name": "id", "in": "path", "required": true}
    },
    "definitions": {
        "CreateSimulation": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "start_date": {"type": "string", "example": "2020-01-01"},
                "base_currency": {"type": "string", "example": "USD"}
            }
        },
        "BalanceOperation": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "1000.00"},
                "direction": {"type": "string", "enum": ["credit", "debit"]},
                "category": {"type": "string", "enum": ["contribution", "withdrawal", "purchase", "sale", "dividend"]},
                "ticker": {"type": "string"},
                "adjust_inflation": {"type": "boolean"}
            }
        },
        "TradeRequest": {
            "type": "object",
            "properties": {
                "ticker": {"type": "string", "example": "PETR4"},
                "desired_amount": {"type": "string", "example": "500.00"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Simfolio API",
	Description:      "Month-by-month investment portfolio simulator.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
