package domain

import "time"

// Цвета уведомлений (RGB).
const (
	ColorCritical = 0xFF0000
	ColorWarning  = 0xFFA500
	ColorWelcome  = 0xFF69B4
	ColorInfo     = 0x00FFFF
	ColorSuccess  = 0x00FF00
	ColorIdea     = 0xFFD700
)

type NotificationField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notification: структурированное сообщение (embed) для отправки в канал.
type Notification struct {
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Color        int                 `json:"color"`
	Fields       []NotificationField `json:"fields,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}
