// Package docs 接口文档，修改控制器注解后执行 swag init 重新生成
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
        "/health": {
            "get": {
                "tags": ["系统"],
                "summary": "健康检查",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/courses/{courseId}/quizzes/{quizId}/attempts": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["测验模块"],
                "summary": "开始或恢复答题",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "课程ID", "name": "courseId", "in": "path", "required": true},
                    {"type": "integer", "description": "测验ID", "name": "quizId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/quizzes/{quizId}/attempts": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["测验模块"],
                "summary": "获取本人在测验下的作答记录与成绩",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "测验ID", "name": "quizId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/attempts/{attemptId}/answers/{questionId}": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["测验模块"],
                "summary": "作答单题（重复提交覆盖）",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "作答ID", "name": "attemptId", "in": "path", "required": true},
                    {"type": "integer", "description": "题目ID", "name": "questionId", "in": "path", "required": true},
                    {"description": "答案", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SubmitAnswerReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/attempts/{attemptId}/submit": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["测验模块"],
                "summary": "交卷",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "作答ID", "name": "attemptId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "controller.SubmitAnswerReq": {
            "type": "object",
            "required": ["questionType"],
            "properties": {
                "questionType": {"type": "string", "enum": ["multiple_choice", "true_false", "short_answer"]},
                "choiceId": {"type": "integer"},
                "value": {"type": "string"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "LMS 测验答题 API",
	Description:      "课程测验的开始答题、单题作答与交卷接口。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
