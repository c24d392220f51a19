package services

import (
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/database"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SaveSession stores the signed-in account, replacing whatever session was
// there before. Only one row is ever kept.
func SaveSession(account models.Account, aliases []string, token string) (models.Session, error) {
	session := models.Session{
		AccountID: account.ID,
		Aliases:   datatypes.JSONSlice[string](aliases),
		Name:      account.Name,
		Avatar:    account.Avatar,
		Bio:       account.Bio,
		Token:     token,
	}
	if session.Aliases == nil {
		session.Aliases = datatypes.JSONSlice[string]{}
	}

	err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return session, fmt.Errorf("unable to save session: %v", err)
	}

	log.Debug().Str("account", account.ID).Msg("Session saved.")
	return session, nil
}

func GetSession() (models.Session, error) {
	var session models.Session
	if err := database.C.Order("updated_at DESC").First(&session).Error; err != nil {
		return session, err
	}
	return session, nil
}

// LoadViewer returns the stored viewer and its token. Without a session the
// viewer is anonymous and the token empty.
func LoadViewer() (models.Viewer, string, error) {
	session, err := GetSession()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Viewer{}, "", nil
	} else if err != nil {
		return models.Viewer{}, "", fmt.Errorf("unable to load session: %v", err)
	}
	return session.ToViewer(), session.Token, nil
}

func ClearSession() error {
	if err := database.C.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("unable to clear session: %v", err)
	}
	return nil
}
