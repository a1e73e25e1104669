// Package mq — интеграция QuietHours с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — события напоминаний и запросы приветственных писем
//   - consumer.go   — потребление очереди с ack/nack и DLQ
//
// Типы сообщений:
//   - notification.sent    — напоминание отправлено
//   - notification.failed  — отправка напоминания не удалась
//   - email.welcome        — нужно отправить приветственное письмо
//
// Exchanges:
//   - quiethours.notifications — события напоминаний (topic, для внешних подписчиков)
//   - quiethours.emails        — запросы на отправку писем
//   - quiethours.dlq           — dead letter
//
// RabbitMQ необязателен: без RABBITMQ_URL API отправляет приветствие
// синхронно, а диспетчер не публикует события.
package mq
