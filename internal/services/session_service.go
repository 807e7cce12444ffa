package services

import (
	"context"
	"fmt"

	"github.com/project-tracker/backend/internal/models"
)

// SessionService records sign-in and sign-out. Token issuance happens in the
// authentication layer; this only writes the trail.
type SessionService struct {
	audit *AuditLogger
}

func NewSessionService(audit *AuditLogger) *SessionService {
	return &SessionService{audit: audit}
}

func (s *SessionService) RecordLogin(ctx context.Context, caller *models.Identity) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	s.audit.Record(ctx, caller, models.ActionLogin, models.ResourceUser, models.Ref(caller.ID),
		fmt.Sprintf("%s logged in", caller.DisplayName), nil, nil)
	return nil
}

func (s *SessionService) RecordLogout(ctx context.Context, caller *models.Identity) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	s.audit.Record(ctx, caller, models.ActionLogout, models.ResourceUser, models.Ref(caller.ID),
		fmt.Sprintf("%s logged out", caller.DisplayName), nil, nil)
	return nil
}
