package main

import (
	"context"
	"errors"
	"log"

	"clinic/internal/app"
	"clinic/internal/config"
	"clinic/internal/domain"
	"clinic/internal/repository"
	"clinic/internal/tenant"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	email    string
	name     string
	password string
	role     domain.Role
}

var seedUsers = []seedUser{
	{email: "owner@clinic.local", name: "Clinic Owner", password: "owner12345", role: domain.RoleOwner},
	{email: "admin@clinic.local", name: "Front Desk", password: "admin12345", role: domain.RoleAdmin},
	{email: "doctor@clinic.local", name: "Dr. House", password: "doctor12345", role: domain.RoleMember},
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, closer, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer closer.Close()

	users := repository.NewUserRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	members := repository.NewMembershipRepository(db)

	ids := make(map[string]string, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := users.GetByEmail(ctx, su.email)
		if err == nil {
			ids[su.email] = existing.ID
			logger.Info("user exists", zap.String("email", su.email))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Fatal("lookup user", zap.Error(err))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hash password", zap.Error(err))
		}
		u := &domain.User{Email: su.email, Name: su.name, PasswordHash: string(hash)}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatal("create user", zap.String("email", su.email), zap.Error(err))
		}
		ids[su.email] = u.ID
		logger.Info("user created", zap.String("email", su.email), zap.String("password", su.password))
	}

	ownerID := ids[seedUsers[0].email]
	existing, err := members.ListByUser(ctx, ownerID)
	if err != nil {
		logger.Fatal("list memberships", zap.Error(err))
	}
	if len(existing) > 0 {
		logger.Info("seed organization exists", zap.String("org_id", existing[0].OrgID.String()))
		return
	}

	org := &domain.Organization{ID: tenant.NewOrgID(), Name: "Demo Clinic"}
	if err := orgs.Create(ctx, org, ownerID); err != nil {
		logger.Fatal("create organization", zap.Error(err))
	}
	for _, su := range seedUsers[1:] {
		m := &domain.Membership{UserID: ids[su.email], OrgID: org.ID, Role: su.role}
		if err := members.Create(ctx, m); err != nil && !errors.Is(err, repository.ErrDuplicateMembership) {
			logger.Fatal("create membership", zap.String("email", su.email), zap.Error(err))
		}
	}

	logger.Info("seed completed", zap.String("org_id", org.ID.String()))
}
