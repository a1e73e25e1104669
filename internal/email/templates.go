package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Kind — вид письма.
type Kind string

const (
	KindWelcome  Kind = "welcome"
	KindReminder Kind = "reminder"
)

// ParseKind проверяет вид письма.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindWelcome, KindReminder:
		return k, nil
	default:
		return "", fmt.Errorf("unknown email kind %q", s)
	}
}

const welcomeSubject = "🎉 Welcome to Quiet Hours Scheduler!"

// ReminderData — данные напоминания о сессии.
// Дата и время уже отформатированы для читателя письма
// ("Monday, March 10, 2025", "9:00 AM").
type ReminderData struct {
	To          string
	UserName    string
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
}

// welcomeData — данные приветственного письма.
type welcomeData struct {
	Name         string
	DashboardURL string
}

// reminderSubject возвращает тему напоминания.
func reminderSubject(title string) string {
	return fmt.Sprintf("🔔 Reminder: \"%s\" starts in 10 minutes", title)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
