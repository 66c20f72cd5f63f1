package apirouter

import (
	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
)

func sessionView(s *domain.Session) apiv1.SessionView {
	var data map[string]string
	if len(s.Data) > 0 {
		data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			data[k] = v
		}
	}
	return apiv1.SessionView{
		ID:           s.ID,
		UserID:       s.UserID,
		DeviceID:     s.DeviceID,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		LastAccessIP: s.LastAccessIP,
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		LastActive:   s.LastActive,
		Data:         data,
		Version:      s.Version,
	}
}

func apiKeyView(k *domain.APIKey) apiv1.APIKeyView {
	return apiv1.APIKeyView{
		KeyID:       k.KeyID,
		Name:        k.Name,
		Role:        string(k.Role),
		Status:      string(k.Status),
		RateLimit:   k.RateLimit,
		Description: k.Description,
		CreatedAt:   k.CreatedAt,
		CreatedBy:   k.CreatedBy,
		LastUsed:    k.LastUsed,
	}
}
