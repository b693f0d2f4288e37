package main

import (
	"context"
	"testing"
	"time"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*demoSeeder, *gorm.DB) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &demoSeeder{
		uowFactory: unitofwork.NewRepositoryFactory(db),
		hashCost:   bcrypt.MinCost,
		now:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, db
}

func TestDemoSeeder_RerunOnlyFillsGaps(t *testing.T) {
	seeder, _ := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, demoEmail, "pw"))
	require.NoError(t, seeder.Run(ctx, demoEmail, "pw"))

	uow := seeder.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().Count(ctx, specification.ByEmail{Email: demoEmail})
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: demoEmail})
	require.NoError(t, err)
	require.NotNil(t, user)

	sessions, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(len(constant.QuickStartTopics)), sessions)

	first, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByTitle{Title: constant.QuickStartTopics[0].Title},
	)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.UpdatedAt.After(first.CreatedAt), "the sample exchange touches its session")

	messages, err := uow.MessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: first.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoExchange)), messages)
}

func TestDemoSeeder_FailureLeavesNoPartialRows(t *testing.T) {
	seeder, db := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, db.Migrator().DropTable(&model.Message{}))

	err := seeder.Run(ctx, demoEmail, "pw")
	require.Error(t, err)

	uow := seeder.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().Count(ctx, specification.ByEmail{Email: demoEmail})
	require.NoError(t, err)
	assert.Zero(t, users)

	sessions, err := uow.ChatSessionRepository().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, sessions)
}
