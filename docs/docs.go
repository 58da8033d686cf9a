// Package docs регистрирует описание API для swagger UI.
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
        "/signup": {"post": {"tags": ["Auth"], "summary": "Регистрация реселлера", "responses": {"201": {"description": "Created"}}}},
        "/login": {"post": {"tags": ["Auth"], "summary": "Авторизация", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["Health"], "summary": "Проверка готовности", "responses": {"200": {"description": "OK"}}}},
        "/snapshot": {"get": {"tags": ["Snapshot"], "summary": "Все данные инициатора", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/accounts": {
            "get": {"tags": ["Accounts"], "summary": "Видимые аккаунты", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Accounts"], "summary": "Создать субаккаунт", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/accounts/me": {"get": {"tags": ["Accounts"], "summary": "Текущий аккаунт", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/accounts/{id}/credits": {"post": {"tags": ["Accounts"], "summary": "Изменить баланс", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/plans": {
            "get": {"tags": ["Plans"], "summary": "Список тарифов", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Plans"], "summary": "Создать тариф", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/plans/{id}": {
            "get": {"tags": ["Plans"], "summary": "Тариф по ID", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Plans"], "summary": "Изменить тариф", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Plans"], "summary": "Удалить тариф", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/servers": {
            "get": {"tags": ["Servers"], "summary": "Список серверов", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Servers"], "summary": "Зарегистрировать сервер", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/servers/{id}": {
            "get": {"tags": ["Servers"], "summary": "Сервер по ID", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Servers"], "summary": "Удалить сервер", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/clients": {
            "get": {"tags": ["Clients"], "summary": "Клиенты со статусами", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Clients"], "summary": "Создать клиента", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/clients/export": {"get": {"tags": ["Clients"], "summary": "Выгрузить клиентов в XLSX", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/clients/{id}": {
            "get": {"tags": ["Clients"], "summary": "Клиент по ID", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Clients"], "summary": "Изменить клиента", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Clients"], "summary": "Удалить клиента", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/clients/{id}/renew": {"post": {"tags": ["Clients"], "summary": "Продлить клиента", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/payments/webhook": {"post": {"tags": ["Payments"], "summary": "Платёжное событие", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo содержит метаданные API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Reseller Panel API",
	Description:      "API панели реселлера: аккаунты, кредиты, тарифы, серверы и клиенты",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
