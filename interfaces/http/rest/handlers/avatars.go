package handlers

import (
	"context"

	"chatapi/application/services"
	"chatapi/domain/entities"

	"go.uber.org/zap"
)

// avatars fills avatarUrl on outgoing users. A signing failure leaves the
// URL empty; the rest of the response is still served.
type avatars struct {
	files  *services.FileService
	logger *zap.Logger
}

func (a avatars) sign(ctx context.Context, users ...*entities.User) {
	if a.files == nil {
		return
	}
	for _, u := range users {
		if err := a.files.SignAvatar(ctx, u); err != nil {
			a.logger.Warn("Failed to sign avatar URL", zap.String("userID", u.ID), zap.Error(err))
		}
	}
}
