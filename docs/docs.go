// Package docs регистрирует swagger-описание HTTP API клиента покупок.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/product": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Purchase"],
                "summary": "Найти продукт подписки",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Продукт не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка платформы", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/purchase": {
            "post": {
                "description": "Отправляет платеж и ждет итога. cannotPay возвращается как обычный результат.\nЕсли итог не пришел за время ожидания (например, отложенная покупка),\nвозвращается 202, а состояние подписки нужно проверять через /entitlement.",
                "produces": ["application/json"],
                "tags": ["Purchase"],
                "summary": "Купить подписку",
                "responses": {
                    "200": {"description": "status: paid, cannotPay, purchaseFailed или purchaseExpired", "schema": {"$ref": "#/definitions/response.Response"}},
                    "202": {"description": "in_progress: итог еще не известен", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Продукт не загружен или покупка уже идет", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка платформы", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/purchase/restore": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Purchase"],
                "summary": "Восстановить подписку",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "202": {"description": "in_progress: итог еще не известен", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Покупка уже идет", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка платформы", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/entitlement": {
            "get": {
                "description": "Находит чек, проверяет его на сервере и сообщает, действует ли подписка сейчас.",
                "produces": ["application/json"],
                "tags": ["Purchase"],
                "summary": "Проверить подписку",
                "responses": {
                    "200": {"description": "active: true или false", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Чек не прошел проверку", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions": {
            "post": {
                "description": "Передает транзакции наблюдателю. Ожидающая покупка разрешается этим же запросом.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Transactions"],
                "summary": "Обновления очереди транзакций",
                "parameters": [
                    {"description": "Пачка транзакций", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/transactions.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Некорректный JSON", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions/restore-completed": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Transactions"],
                "summary": "Завершение восстановления",
                "parameters": [
                    {"description": "Итог восстановления", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/restorecompleted.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Некорректный JSON", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Transaction": {
            "type": "object",
            "required": ["product_id", "state"],
            "properties": {
                "error": {"type": "string"},
                "id": {"type": "string"},
                "product_id": {"type": "string"},
                "state": {"type": "string", "enum": ["purchasing", "purchased", "failed", "restored", "deferred"]}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "purchase already in progress"},
                "status": {"type": "string", "example": "Error"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "restorecompleted.Request": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "transactions.Request": {
            "type": "object",
            "required": ["transactions"],
            "properties": {
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/models.Transaction"}}
            }
        }
    }
}`

// SwaggerInfo метаданные описания, которые можно поменять во время запуска.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Simple IAP API",
	Description:      "Покупка и проверка единственной автопродлеваемой подписки",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
