// Package telemetry обеспечивает наблюдаемость сервисов QuietHours.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики диспетчера и HTTP API
//
// Все процессы используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
