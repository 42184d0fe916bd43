package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/internal/couriers"
	pkgauth "github.com/souqly/souqly-backend/pkg/auth"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "users-test-secret",
	Issuer:            "souqly-test",
	ExpirationMinutes: 30,
}

// Low-cost argon parameters keep the hashing tests fast.
var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type testTxRunner struct {
	conn *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Courier{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Couriers:       couriers.NewRepository(conn),
		TxRunner:       testTxRunner{conn: conn},
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRegisterCreatesUserAndMintsToken(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	region := "Casablanca"
	result, err := svc.Register(ctx, RegisterInput{
		Email:    "Amine@Example.com",
		Password: "s3cret-pass",
		FullName: "Amine B",
		Role:     enums.UserRoleClient,
		Region:   &region,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Email != "amine@example.com" {
		t.Fatalf("email not normalized: %s", result.User.Email)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, result.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("token user mismatch")
	}
	if claims.Role != enums.UserRoleClient {
		t.Fatalf("token role mismatch: %s", claims.Role)
	}
	if claims.Region == nil || *claims.Region != region {
		t.Fatal("token region missing")
	}

	var stored models.User
	if err := conn.First(&stored, "id = ?", result.User.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.PasswordHash == "s3cret-pass" || stored.PasswordHash == "" {
		t.Fatal("password stored unhashed")
	}
}

func TestRegisterLivreurProvisionsCourierProfile(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "driver@example.com",
		Password: "s3cret-pass",
		FullName: "Driss K",
		Role:     enums.UserRoleLivreur,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var courier models.Courier
	if err := conn.First(&courier, "user_id = ?", result.User.ID).Error; err != nil {
		t.Fatalf("expected courier profile: %v", err)
	}
	if courier.IsAvailable {
		t.Fatal("new courier should start unavailable")
	}
}

func TestRegisterRejectsDuplicateEmailAndAdminRole(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	input := RegisterInput{
		Email:    "dup@example.com",
		Password: "s3cret-pass",
		FullName: "First",
		Role:     enums.UserRoleMerchant,
	}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, input)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{
		Email:    "root@example.com",
		Password: "s3cret-pass",
		FullName: "Root",
		Role:     enums.UserRoleAdmin,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestLoginVerifiesCredentials(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email:    "login@example.com",
		Password: "correct-horse",
		FullName: "Lina",
		Role:     enums.UserRoleClient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "LOGIN@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.User.ID != registered.User.ID {
		t.Fatalf("login returned wrong user")
	}

	_, err = svc.Login(ctx, LoginInput{Email: "login@example.com", Password: "wrong"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email:    "frozen@example.com",
		Password: "s3cret-pass",
		FullName: "Frozen",
		Role:     enums.UserRoleClient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := NewRepository(conn).SetActive(context.Background(), registered.User.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "frozen@example.com", Password: "s3cret-pass"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
