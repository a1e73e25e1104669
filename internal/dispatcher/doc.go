// Package dispatcher отправляет email-напоминания, время которых подошло.
//
// Один запуск (Run):
//  1. помечает failed записи, зависшие в processing дольше ClaimTTL;
//  2. атомарно захватывает pending-напоминания с scheduled_time
//     в [now, now+10m] (статус processing);
//  3. для каждой записи отправляет письмо и сохраняет sent или failed;
//     запись без quiet block или профиля возвращается в pending,
//     как и запись, до которой запуск не успел дойти за 4/5 ClaimTTL;
//  4. возвращает Report с итогами.
//
// Ошибка одной записи (включая panic) не прерывает обработку остальных.
//
// Структура:
//   - dispatcher.go — Run и обработка одной записи
//   - trigger.go    — cron-расписание запусков и его проверка
//
// Использование:
//
//	d := dispatcher.New(dispatcher.Config{
//	    Store:  store,
//	    Mailer: sender,
//	    Events: publisher, // опционально
//	    Logger: logger,
//	})
//
//	report, err := d.Run(ctx)
//
// Leader election в процессе диспетчера выполняется в main.go
// через pg_try_advisory_lock. Параллельные запуски (cron и
// POST /api/send-notifications) безопасны благодаря атомарному захвату.
package dispatcher
