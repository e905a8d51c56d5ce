// Package models содержит доменные структуры клиента встроенных покупок:
// продукт подписки, транзакции платформы, статусы покупки и чека.
package models

// Product описывает единственный продукт автопродлеваемой подписки,
// полученный из каталога платформы. Хранится только в памяти процесса.
type Product struct {
	ID     string `json:"id"`               // Идентификатор продукта в каталоге
	Title  string `json:"title,omitempty"`  // Локализованное название
	Price  string `json:"price,omitempty"`  // Локализованная цена
	Handle string `json:"handle,omitempty"` // Непрозрачный дескриптор платформы
}
