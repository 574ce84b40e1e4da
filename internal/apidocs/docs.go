// Package apidocs registers the Swagger document served by the HTTP
// surface under /swagger.
package apidocs

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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness and active scoring mode",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "summary": "Process counters and cache statistics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/contributors/{login}/score": {
            "get": {
                "produces": ["application/json"],
                "summary": "Score one contributor",
                "parameters": [
                    {
                        "type": "string",
                        "description": "GitHub login, a leading @ is ignored",
                        "name": "login",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "Scoring result"},
                    "400": {"description": "Invalid login or configuration"},
                    "404": {"description": "Unknown user"},
                    "429": {"description": "GitHub quota exhausted"},
                    "502": {"description": "GitHub unavailable"}
                }
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
	Title:            "Contributor Quality API",
	Description:      "Scores GitHub contributors from their public activity.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
