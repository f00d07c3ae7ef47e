// Command token upserts a user and prints a session JWT for it. Identity is
// issued by an external provider in deployed environments, this is for local use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/database"
	"github.com/SeakMengs/DocControl/internal/env"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const adminRoleName = "Administrator"

func init() {
	env.LoadEnv(".env")
}

func main() {
	email := flag.String("email", "", "email of the user")
	firstName := flag.String("first", "Dev", "first name used when the user is created")
	lastName := flag.String("last", "User", "last name used when the user is created")
	org := flag.String("org", "default", "organization id used when the user is created")
	admin := flag.Bool("admin", false, "grant the Administrator role with every permission")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if strings.TrimSpace(*email) == "" {
		logger.Fatal("-email is required")
	}

	cfg := config.GetConfig()
	if cfg.IsProduction() {
		logger.Fatal("refusing to mint tokens in production")
	}

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	ctx := context.Background()
	repo := repository.NewRepository(db, logger)

	user, err := repo.User.GetByEmail(ctx, nil, *email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = repo.User.Create(ctx, nil, &model.User{
			Email:          *email,
			FirstName:      *firstName,
			LastName:       *lastName,
			OrganizationID: *org,
		})
	}
	if err != nil {
		logger.Panic(err)
	}

	if *admin {
		role, err := adminRole(ctx, repo)
		if err != nil {
			logger.Panic(err)
		}
		if err := repo.User.AssignRoleAndDepartment(ctx, nil, user.ID, &role.ID, user.DepartmentID); err != nil {
			logger.Panic(err)
		}
		logger.Infof("Granted %s to %s", role.Name, user.Email)
	}

	token, err := auth.NewJwt(cfg.Auth, logger).GenerateToken(auth.JWTPayload{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		logger.Panic(err)
	}

	fmt.Println(token)
}

// adminRole finds the Administrator role and makes sure it grants every permission.
func adminRole(ctx context.Context, repo *repository.Repository) (*model.Role, error) {
	all := make([]string, len(constant.AllPermissions))
	for i, p := range constant.AllPermissions {
		all[i] = string(p)
	}

	roles, err := repo.Role.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.Name == adminRoleName {
			if slices.Equal([]string(r.Permissions), all) {
				return &r, nil
			}
			return repo.Role.Update(ctx, nil, r.ID, r.Name, r.Description, all)
		}
	}

	return repo.Role.Create(ctx, nil, &model.Role{
		Name:        adminRoleName,
		Description: "Full access",
		Permissions: all,
	})
}
