// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go             — Handler с DI (сервисы, хранилища, mailer, logger)
//   - routes.go              — регистрация маршрутов
//   - middleware.go          — middleware (logging, recovery, metrics)
//   - auth.go                — JWT и CRON_SECRET авторизация
//   - response.go            — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                 — Data Transfer Objects (request/response)
//   - quiet_block_handler.go — обработчики для /quiet-blocks и /notifications
//   - profile_handler.go     — обработчики для /profile
//   - trigger_handler.go     — рассылка, тестовое письмо, webhook
//
// Эндпоинты /api/v1 требуют JWT с id пользователя в "sub".
// Служебные эндпоинты сохраняют плоский формат ответов {"message"} / {"error"}.
package api
