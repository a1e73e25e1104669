package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	processingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
	sentStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	inactiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	color    bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
// Цвета отключаются в JSON-режиме и при заданной NO_COLOR.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		color:    !jsonMode && os.Getenv("NO_COLOR") == "",
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
// Цветной может быть только последний столбец: escape-коды ломают выравнивание.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Status раскрашивает статус напоминания.
func (o *Output) Status(status string) string {
	if !o.color {
		return status
	}
	switch status {
	case "pending":
		return pendingStyle.Render(status)
	case "processing":
		return processingStyle.Render(status)
	case "sent":
		return sentStyle.Render(status)
	case "failed":
		return failedStyle.Render(status)
	default:
		return status
	}
}

// Active раскрашивает признак активности quiet block.
func (o *Output) Active(active bool) string {
	if active {
		return "active"
	}
	if !o.color {
		return "inactive"
	}
	return inactiveStyle.Render("inactive")
}

// Value выводит одно значение: как есть или {"key": value} в JSON-режиме.
func (o *Output) Value(key, value string) {
	if o.jsonMode {
		o.JSON(map[string]string{key: value})
		return
	}
	fmt.Fprintln(o.w, value)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
