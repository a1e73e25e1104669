package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// QuietBlockResponse — quiet block из API.
type QuietBlockResponse struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description,omitempty"`
	Date              string                `json:"date"`
	StartTime         string                `json:"start_time"`
	EndTime           string                `json:"end_time"`
	IsRecurring       bool                  `json:"is_recurring"`
	RecurrencePattern string                `json:"recurrence_pattern,omitempty"`
	IsActive          bool                  `json:"is_active"`
	Reminder          *NotificationResponse `json:"reminder,omitempty"`
	ReminderError     string                `json:"reminder_error,omitempty"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
}

// NotificationResponse — напоминание из API.
type NotificationResponse struct {
	ID            string `json:"id"`
	QuietBlockID  string `json:"quiet_block_id"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
	SentAt        string `json:"sent_at,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ProfileResponse — профиль из API.
type ProfileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// DispatchResponse — итог запуска рассылки. Processed заполняется,
// когда отправлять было нечего.
type DispatchResponse struct {
	Message   string `json:"message"`
	Total     int    `json:"total"`
	Success   int    `json:"success"`
	Failures  int    `json:"failures"`
	Processed *int   `json:"processed,omitempty"`
}

// TestEmailResponse — результат тестового письма.
type TestEmailResponse struct {
	Message string `json:"message"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

// --- Request types ---

// CreateQuietBlockRequest — создание quiet block.
type CreateQuietBlockRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Date              string `json:"date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	IsRecurring       bool   `json:"is_recurring,omitempty"`
	RecurrencePattern string `json:"recurrence_pattern,omitempty"`
}

// UpdateQuietBlockRequest — частичное обновление quiet block.
type UpdateQuietBlockRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateProfileRequest — обновление профиля.
type UpdateProfileRequest struct {
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// TestEmailRequest — тестовое письмо.
type TestEmailRequest struct {
	Type        string `json:"type"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Date        string `json:"date,omitempty"`
}

// ListBlocksOpts — параметры фильтрации quiet blocks.
type ListBlocksOpts struct {
	IncludeInactive bool
	Limit           int
}

// ListNotificationsOpts — параметры фильтрации напоминаний.
type ListNotificationsOpts struct {
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

// errorResponse покрывает оба формата ошибок API:
// {"error":{"code","message"}} и плоский {"error":"...","details":"..."}.
type errorResponse struct {
	Error   json.RawMessage `json:"error"`
	Details string          `json:"details"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// --- Client ---

// Client — HTTP-клиент для QuietHours API.
type Client struct {
	baseURL    string
	token      string
	cronSecret string
	httpClient *http.Client
}

// ClientConfig — параметры клиента.
type ClientConfig struct {
	BaseURL    string
	Token      string // JWT для /api/v1
	CronSecret string // для /api/send-notifications
}

// NewClient создаёт клиент для API.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		cronSecret: cfg.CronSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Quiet blocks ---

// ListBlocks возвращает quiet blocks пользователя.
func (c *Client) ListBlocks(opts ListBlocksOpts) ([]QuietBlockResponse, error) {
	params := url.Values{}
	if opts.IncludeInactive {
		params.Set("include_inactive", "true")
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var blocks []QuietBlockResponse
	err := c.list("/api/v1/quiet-blocks", params, &blocks)
	return blocks, err
}

// CreateBlock создаёт quiet block.
func (c *Client) CreateBlock(req CreateQuietBlockRequest) (*QuietBlockResponse, error) {
	var block QuietBlockResponse
	err := c.post("/api/v1/quiet-blocks", req, &block)
	return &block, err
}

// GetBlock возвращает quiet block по ID.
func (c *Client) GetBlock(id string) (*QuietBlockResponse, error) {
	var block QuietBlockResponse
	err := c.get("/api/v1/quiet-blocks/"+id, &block)
	return &block, err
}

// UpdateBlock обновляет quiet block.
func (c *Client) UpdateBlock(id string, req UpdateQuietBlockRequest) (*QuietBlockResponse, error) {
	var block QuietBlockResponse
	err := c.put("/api/v1/quiet-blocks/"+id, req, &block)
	return &block, err
}

// DeactivateBlock выключает quiet block, не удаляя его.
func (c *Client) DeactivateBlock(id string) (*QuietBlockResponse, error) {
	var block QuietBlockResponse
	err := c.post("/api/v1/quiet-blocks/"+id+"/deactivate", nil, &block)
	return &block, err
}

// DeleteBlock удаляет quiet block.
func (c *Client) DeleteBlock(id string) error {
	return c.delete("/api/v1/quiet-blocks/" + id)
}

// --- Notifications ---

// ListNotifications возвращает напоминания пользователя.
func (c *Client) ListNotifications(opts ListNotificationsOpts) ([]NotificationResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var notifications []NotificationResponse
	err := c.list("/api/v1/notifications", params, &notifications)
	return notifications, err
}

// --- Profile ---

// GetProfile возвращает свой профиль.
func (c *Client) GetProfile() (*ProfileResponse, error) {
	var profile ProfileResponse
	err := c.get("/api/v1/profile", &profile)
	return &profile, err
}

// UpdateProfile создаёт или обновляет свой профиль.
func (c *Client) UpdateProfile(req UpdateProfileRequest) (*ProfileResponse, error) {
	var profile ProfileResponse
	err := c.put("/api/v1/profile", req, &profile)
	return &profile, err
}

// --- Service endpoints ---

// Dispatch запускает рассылку напоминаний.
func (c *Client) Dispatch() (*DispatchResponse, error) {
	var result DispatchResponse
	err := c.doPlain(http.MethodPost, "/api/send-notifications", "Bearer "+c.cronSecret, nil, &result)
	return &result, err
}

// TestEmail отправляет тестовое письмо.
func (c *Client) TestEmail(req TestEmailRequest) (*TestEmailResponse, error) {
	var result TestEmailResponse
	err := c.doPlain(http.MethodPost, "/api/test-email", "", req, &result)
	return &result, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, c.bearer(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, c.bearer(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, c.bearer(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

// doPlain выполняет запрос к служебному эндпоинту без конверта data.
func (c *Client) doPlain(method, path, authz string, body any, result any) error {
	resp, err := c.do(method, path, authz, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) bearer() string {
	if c.token == "" {
		return ""
	}
	return "Bearer " + c.token
}

func (c *Client) do(method, path, authz string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || len(er.Error) == 0 {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	var detail errorDetail
	if err := json.Unmarshal(er.Error, &detail); err == nil {
		if detail.Field != "" {
			return fmt.Errorf("%s: %s: %s", detail.Code, detail.Field, detail.Message)
		}
		return fmt.Errorf("%s: %s", detail.Code, detail.Message)
	}

	var msg string
	if err := json.Unmarshal(er.Error, &msg); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	if er.Details != "" {
		return fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, msg, er.Details)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
}
