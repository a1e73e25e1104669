// Package cli реализует инструмент командной строки QuietHours.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с QuietHours API.
// Работает через HTTP. Из внутренних пакетов использует только
// api.IssueToken для команды token.
// CLI используется для управления quiet blocks, просмотра напоминаний,
// ручного запуска рассылки и отправки тестовых писем.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для QuietHours API. Эндпоинты /api/v1 вызываются с JWT
// (--token), рассылка с CRON_SECRET (--cron-secret). Понимает оба
// формата ошибок: {"error":{"code","message"}} и {"error":"..."}.
//
//	client := cli.NewClient(cli.ClientConfig{BaseURL: "http://localhost:8080", Token: token})
//	blocks, err := client.ListBlocks(cli.ListBlocksOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию, статусы раскрашены lipgloss
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: quiethours notification list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - block: list, create, show, update, delete
//   - notification: list
//   - profile: show, set
//   - email: test
//   - dispatch
//   - token: выпуск JWT для локальной разработки
//
// Каждая группа создаётся через фабричную функцию (NewBlockCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
