package seed

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
)

// SampleUser is one account created by Users.
type SampleUser struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     string
	Bio      string
}

// SampleUsers are the demo accounts of a fresh installation.
var SampleUsers = []SampleUser{
	{"admin", "admin123", "admin@university.ac.ir", "System Administrator", models.ROLE_ADMIN, "Administrator of the association portal"},
	{"member1", "member123", "member1@university.ac.ir", "Ali Ahmadi", models.ROLE_MEMBER, "Association member, artificial intelligence"},
	{"member2", "member123", "member2@university.ac.ir", "Maryam Hosseini", models.ROLE_MEMBER, "Association member, cyber security"},
	{"user1", "user123", "user1@student.university.ac.ir", "Mohammad Karimi", models.ROLE_USER, "Undergraduate computer science student"},
	{"user2", "user123", "user2@student.university.ac.ir", "Fatemeh Nouri", models.ROLE_USER, "Graduate computer engineering student"},
}

// Users creates SampleUsers unless an account named admin already exists.
// It returns the number of created accounts.
func Users(users repository.UserRepository) (int, error) {
	_, err := users.GetByUsername("admin")
	if err == nil {
		log.Info("[Seed] sample users already exist")
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("check admin account: %w", err)
	}

	created := 0
	for _, s := range SampleUsers {
		u, err := models.CreateUser(s.Username, s.Email, s.Password, s.FullName)
		if err != nil {
			return created, fmt.Errorf("build user %s: %w", s.Username, err)
		}
		u.Bio = s.Bio
		if err := users.Create(u); err != nil {
			return created, fmt.Errorf("create user %s: %w", s.Username, err)
		}
		if s.Role != models.ROLE_USER {
			if _, err := users.UpdateRole(u.ID, s.Role); err != nil {
				return created, fmt.Errorf("assign role to %s: %w", s.Username, err)
			}
		}
		created++
		log.Infof("[Seed] created %s (%s)", s.Username, s.Role)
	}
	return created, nil
}
