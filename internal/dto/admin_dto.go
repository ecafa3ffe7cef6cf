package dto

import (
	"time"

	"agencyhub/internal/entity"
)

type GrantAdminRequest struct {
	UserID      string     `json:"userId" validate:"required,uuid"`
	IsPermanent bool       `json:"isPermanent"`
	ExpiryDate  *time.Time `json:"expiryDate"`
}

type RevokeAdminRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

type NotificationResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    Pagination             `json:"pagination"`
}

func NotificationResponseFromEntity(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func NotificationResponsesFromEntities(list []entity.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(list))
	for i := range list {
		responses = append(responses, NotificationResponseFromEntity(&list[i]))
	}
	return responses
}
