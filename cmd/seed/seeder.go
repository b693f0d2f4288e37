package main

import (
	"context"
	"log"
	"time"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var demoExchange = []struct {
	role    entity.MessageRole
	content string
}{
	{entity.MessageRoleUser, "I've been a backend developer for four years. How do I move into engineering management?"},
	{entity.MessageRoleAssistant, "Start by taking on leadership work in your current role: mentor a junior engineer, run a project kickoff, and own a retrospective. Then talk to your manager about a tech lead step before a full people-management role."},
}

// demoSeeder writes the demo account, one session per quick-start topic and
// a sample exchange in the first one. A run either lands completely or not at
// all, and rerunning it only fills what is missing.
type demoSeeder struct {
	uowFactory unitofwork.RepositoryFactory
	hashCost   int
	now        time.Time
}

func (s *demoSeeder) Run(ctx context.Context, email, password string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	log.Println("Seeding demo user...")
	user, err := s.seedUser(ctx, uow, email, password)
	if err != nil {
		return err
	}

	log.Println("Seeding quick-start sessions...")
	if err := s.seedSessions(ctx, uow, user.Id); err != nil {
		return err
	}

	total, err := uow.ChatSessionRepository().Count(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ActiveSessions{},
	)
	if err != nil {
		return err
	}
	log.Printf("Demo user has %d active sessions", total)

	return uow.Commit()
}

func (s *demoSeeder) seedUser(ctx context.Context, uow unitofwork.UnitOfWork, email, password string) (*entity.User, error) {
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("User '%s' already exists, skipping...", email)
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Name:         "Demo User",
		Email:        email,
		PasswordHash: &hashStr,
		CreatedAt:    s.now,
		UpdatedAt:    s.now,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Created user: %s", email)
	return user, nil
}

func (s *demoSeeder) seedSessions(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	sessions := uow.ChatSessionRepository()
	messages := uow.MessageRepository()

	for i, topic := range constant.QuickStartTopics {
		createdAt := s.now.Add(time.Duration(i) * time.Second)

		session, err := sessions.FindOne(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByTitle{Title: topic.Title},
			specification.ActiveSessions{},
		)
		if err != nil {
			return err
		}
		if session != nil {
			log.Printf("Session '%s' already exists, skipping...", topic.Title)
		} else {
			description := topic.Description
			session = &entity.ChatSession{
				Id:          uuid.Must(uuid.NewV7()),
				UserId:      userId,
				Title:       topic.Title,
				Description: &description,
				IsActive:    true,
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			}
			if err := sessions.Create(ctx, session); err != nil {
				return err
			}
			log.Printf("Created session: %s", topic.Title)
		}

		if i != 0 {
			continue
		}
		n, err := messages.Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}

		var last time.Time
		for j, turn := range demoExchange {
			last = session.CreatedAt.Add(time.Duration(j+1) * time.Millisecond)
			msg := &entity.Message{
				Id:            uuid.Must(uuid.NewV7()),
				ChatSessionId: session.Id,
				Role:          turn.role,
				Content:       turn.content,
				CreatedAt:     last,
			}
			if err := messages.Create(ctx, msg); err != nil {
				return err
			}
		}
		if err := sessions.Touch(ctx, session.Id, last); err != nil {
			return err
		}
	}
	return nil
}
