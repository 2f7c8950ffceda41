// Package docs registers the generated OpenAPI document with swag so the
// /swagger/* handler can serve it.
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
        "/polls": {
            "get": {
                "tags": ["polls"],
                "summary": "List polls",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["polls"],
                "summary": "Create a poll",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/polls/{id}": {
            "get": {
                "tags": ["polls"],
                "summary": "Get a poll",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/votes": {
            "post": {
                "tags": ["votes"],
                "summary": "Cast a vote",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Vote recorded"},
                    "404": {"description": "Poll or option not found"},
                    "409": {"description": "Already voted"},
                    "422": {"description": "Poll closed"}
                }
            }
        },
        "/polls/{id}/results": {
            "get": {
                "tags": ["results"],
                "summary": "Poll results",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/polls/{id}/stream": {
            "get": {
                "tags": ["results"],
                "summary": "Live results stream (text/event-stream)",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Event stream established"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "OneVote API",
	Description:      "Poll creation, one-vote-per-voter ingestion, cached aggregate results and live result streaming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
