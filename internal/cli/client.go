package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// UserResponse: пользователь из API.
type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Phone          string `json:"phone_number,omitempty"`
	City           string `json:"city,omitempty"`
	TelegramLinked bool   `json:"telegram_linked"`
	CreatedAt      string `json:"created_at"`
}

// LoginResponse: токен из API.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// HabitResponse: привычка из API.
type HabitResponse struct {
	ID            string  `json:"id"`
	Place         string  `json:"place"`
	Action        string  `json:"action"`
	Time          string  `json:"time"`
	Frequency     *int    `json:"frequency"`
	Duration      int     `json:"duration"`
	IsPleasant    bool    `json:"is_pleasant"`
	IsPublic      bool    `json:"is_public"`
	RelatedHabit  string  `json:"related_habit,omitempty"`
	Reward        *string `json:"reward,omitempty"`
	LastReminder  string  `json:"last_reminder,omitempty"`
	ReminderState string  `json:"reminder_state,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// TelegramLinkResponse: код привязки из API.
type TelegramLinkResponse struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
	Command   string `json:"command"`
	BotURL    string `json:"bot_url,omitempty"`
}

// --- Request types ---

// RegisterRequest: регистрация.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone_number,omitempty"`
	City     string `json:"city,omitempty"`
}

// CreateHabitRequest: создание привычки.
type CreateHabitRequest struct {
	Place        string  `json:"place"`
	Action       string  `json:"action"`
	Time         string  `json:"time"`
	Frequency    *int    `json:"frequency,omitempty"`
	Duration     *int    `json:"duration,omitempty"`
	IsPleasant   bool    `json:"is_pleasant"`
	IsPublic     bool    `json:"is_public"`
	RelatedHabit string  `json:"related_habit,omitempty"`
	Reward       *string `json:"reward,omitempty"`
}

// ListOpts: пагинация.
type ListOpts struct {
	Limit  int
	Offset int
}

func (o ListOpts) values() url.Values {
	params := url.Values{}
	if o.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", o.Limit))
	}
	if o.Offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", o.Offset))
	}
	return params
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// --- Client ---

// Client: HTTP-клиент для API сервиса привычек.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. token: bearer-токен (может быть пустым).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Users ---

// Register регистрирует пользователя.
func (c *Client) Register(req RegisterRequest) (*UserResponse, error) {
	var user UserResponse
	err := c.post("/api/v1/users", req, &user)
	return &user, err
}

// Login возвращает токен.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var login LoginResponse
	err := c.post("/api/v1/auth/login", body, &login)
	return &login, err
}

// Logout отзывает токен.
func (c *Client) Logout() error {
	return c.post("/api/v1/auth/logout", nil, nil)
}

// Me возвращает текущего пользователя.
func (c *Client) Me() (*UserResponse, error) {
	var user UserResponse
	err := c.get("/api/v1/users/me", &user)
	return &user, err
}

// --- Habits ---

// ListHabits возвращает привычки текущего пользователя.
func (c *Client) ListHabits(opts ListOpts) ([]HabitResponse, error) {
	var habits []HabitResponse
	err := c.list("/api/v1/habits", opts.values(), &habits)
	return habits, err
}

// ListPublicHabits возвращает публичные привычки.
func (c *Client) ListPublicHabits(opts ListOpts) ([]HabitResponse, error) {
	var habits []HabitResponse
	err := c.list("/api/v1/habits/public", opts.values(), &habits)
	return habits, err
}

// GetHabit возвращает привычку по ID.
func (c *Client) GetHabit(id string) (*HabitResponse, error) {
	var habit HabitResponse
	err := c.get("/api/v1/habits/"+url.PathEscape(id), &habit)
	return &habit, err
}

// CreateHabit создаёт привычку.
func (c *Client) CreateHabit(req CreateHabitRequest) (*HabitResponse, error) {
	var habit HabitResponse
	err := c.post("/api/v1/habits", req, &habit)
	return &habit, err
}

// DeleteHabit удаляет привычку.
func (c *Client) DeleteHabit(id string) error {
	return c.delete("/api/v1/habits/" + url.PathEscape(id))
}

// --- Telegram ---

// CreateTelegramLink запрашивает код привязки Telegram.
func (c *Client) CreateTelegramLink() (*TelegramLinkResponse, error) {
	var link TelegramLinkResponse
	err := c.post("/api/v1/telegram/link", nil, &link)
	return &link, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
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

	resp, err := c.do(http.MethodGet, path, nil)
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
	resp, err := c.do(method, path, body)
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

func (c *Client) do(method, path string, body any) (*http.Response, error) {
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
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	if len(er.Error.Fields) == 0 {
		return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
	}

	keys := make([]string, 0, len(er.Error.Fields))
	for k := range er.Error.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + er.Error.Fields[k]
	}
	return fmt.Errorf("%s: %s (%s)", er.Error.Code, er.Error.Message, strings.Join(parts, "; "))
}
