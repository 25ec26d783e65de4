package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"resident-manager/internal/registration/models"
	"resident-manager/internal/registration/store/memory"
	"resident-manager/pkg/snowflake"
)

type RegistrationServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.store = memory.New()

	var err error
	s.service, err = New(s.store, snowflake.New(), WithPageSize(5))
	s.Require().NoError(err)
}

func (s *RegistrationServiceSuite) input(username string) CreateInput {
	return CreateInput{
		Name:     "Bob",
		Room:     12,
		Username: username,
		Password: "Str0ng!pwd",
	}
}

func (s *RegistrationServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, snowflake.New())
		s.Error(err)
	})

	s.Run("nil allocator returns error", func() {
		_, err := New(s.store, nil)
		s.Error(err)
	})
}

func (s *RegistrationServiceSuite) TestCreateValidationCodes() {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		code   int
	}{
		{"overlong name", func(in *CreateInput) { in.Name = strings.Repeat("x", 300) }, models.CodeBadName},
		{"empty name", func(in *CreateInput) { in.Name = "" }, models.CodeBadName},
		{"negative room", func(in *CreateInput) { in.Room = -1 }, models.CodeBadRoom},
		{"bad phone", func(in *CreateInput) { in.Phone = "not-a-phone" }, models.CodeBadPhone},
		{"bad email", func(in *CreateInput) { in.Email = "nope@" }, models.CodeBadEmail},
		{"bad username", func(in *CreateInput) { in.Username = "has spaces" }, models.CodeBadUsername},
		{"weak password", func(in *CreateInput) { in.Password = "weak" }, models.CodeWeakPassword},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := s.input("bob")
			tc.mutate(&in)
			res, err := s.service.Create(ctx, in)
			s.Require().NoError(err)
			s.Equal(tc.code, res.Code)
			s.Nil(res.Request)
		})
	}
}

func (s *RegistrationServiceSuite) TestCreateSuccess() {
	ctx := context.Background()

	in := s.input("bob")
	in.Phone = "0123456789"
	in.Email = "bob@example.com"

	res, err := s.service.Create(ctx, in)
	s.Require().NoError(err)
	s.Zero(res.Code)
	s.Require().NotNil(res.Request)
	s.NotZero(res.Request.ID)
	s.Equal("bob", res.Request.Username)
	s.Require().NotNil(res.Request.Phone)
	s.Equal("0123456789", *res.Request.Phone)

	// The stored hash verifies against the submitted password and is never
	// the plaintext.
	s.NotEqual("Str0ng!pwd", res.Request.HashedPassword)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(res.Request.HashedPassword), []byte("Str0ng!pwd")))
}

func (s *RegistrationServiceSuite) TestCreateNormalizesEmptyOptionals() {
	res, err := s.service.Create(context.Background(), s.input("bob"))
	s.Require().NoError(err)
	s.Require().NotNil(res.Request)
	s.Nil(res.Request.Phone)
	s.Nil(res.Request.Email)
	s.Nil(res.Request.Birthday)
}

func (s *RegistrationServiceSuite) TestCreateUsernameConflict() {
	ctx := context.Background()

	first, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	s.Require().NotNil(first.Request)

	second, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	s.Equal(models.CodeUsernameTaken, second.Code)
	s.Nil(second.Request)
}

func (s *RegistrationServiceSuite) TestCreateUsernameConflictAfterAdmission() {
	ctx := context.Background()

	first, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	s.Require().NoError(s.service.Accept(ctx, []uint64{first.Request.ID}))

	// Username now lives in the resident table; the guard still holds.
	second, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	s.Equal(models.CodeUsernameTaken, second.Code)
}

func (s *RegistrationServiceSuite) TestConcurrentCreateSameUsername() {
	ctx := context.Background()

	const attempts = 16
	results := make(chan int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.service.Create(ctx, s.input("bob"))
			s.NoError(err)
			results <- res.Code
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for code := range results {
		switch code {
		case 0:
			succeeded++
		case models.CodeUsernameTaken:
			conflicted++
		default:
			s.Failf("unexpected code", "%d", code)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(attempts-1, conflicted)
}

func (s *RegistrationServiceSuite) TestQueryInvalidFilterShortCircuits() {
	ctx := context.Background()

	_, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)

	badRoom := -1
	rows, err := s.service.Query(ctx, models.Filter{Room: &badRoom}, 0, models.OrderByID, true)
	s.Require().NoError(err)
	s.Empty(rows)

	count, err := s.service.Count(ctx, models.Filter{Room: &badRoom})
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RegistrationServiceSuite) TestQueryPaginationAndOrdering() {
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := s.service.Create(ctx, s.input(fmt.Sprintf("user%02d", i)))
		s.Require().NoError(err)
	}

	page1, err := s.service.Query(ctx, models.Filter{}, 0, models.OrderByUsername, true)
	s.Require().NoError(err)
	s.Require().Len(page1, 5)
	for i := 1; i < len(page1); i++ {
		s.Less(page1[i-1].Username, page1[i].Username)
	}

	page2, err := s.service.Query(ctx, models.Filter{}, 5, models.OrderByUsername, true)
	s.Require().NoError(err)
	s.Len(page2, 3)
	s.Equal("user05", page2[0].Username)

	// Unknown order column silently falls back to id ordering.
	fallback, err := s.service.Query(ctx, models.Filter{}, 0, models.OrderBy("hashed_password"), true)
	s.Require().NoError(err)
	for i := 1; i < len(fallback); i++ {
		s.Less(fallback[i-1].ID, fallback[i].ID)
	}
}

func (s *RegistrationServiceSuite) TestAcceptMovesRows() {
	ctx := context.Background()

	created, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	reqID := created.Request.ID

	s.Require().NoError(s.service.Accept(ctx, []uint64{reqID}))

	count, err := s.service.Count(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Zero(count, "queue row must be gone after admission")

	resident, err := s.store.FindByUsername(ctx, "bob")
	s.Require().NoError(err)
	s.Require().NotNil(resident)
	s.NotEqual(reqID, resident.ID, "resident id is a fresh allocation")
	s.Equal(created.Request.HashedPassword, resident.HashedPassword, "fields carry over unchanged")
}

func (s *RegistrationServiceSuite) TestAcceptSkipsUnknownAndIsIdempotent() {
	ctx := context.Background()

	created, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)
	id := created.Request.ID

	s.Require().NoError(s.service.Accept(ctx, []uint64{id, 999999, id}))

	// Second accept of an already-processed id is a no-op.
	s.Require().NoError(s.service.Accept(ctx, []uint64{id}))

	residents, err := s.store.CountResidents(ctx)
	s.Require().NoError(err)
	s.Equal(1, residents)
}

func (s *RegistrationServiceSuite) TestRejectDeletesWithoutResidents() {
	ctx := context.Background()

	created, err := s.service.Create(ctx, s.input("bob"))
	s.Require().NoError(err)

	s.Require().NoError(s.service.Reject(ctx, []uint64{created.Request.ID, 424242}))
	s.Require().NoError(s.service.Reject(ctx, []uint64{created.Request.ID}))

	count, err := s.service.Count(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Zero(count)

	residents, err := s.store.CountResidents(ctx)
	s.Require().NoError(err)
	s.Zero(residents)
}

func (s *RegistrationServiceSuite) TestAcceptRejectPartition() {
	ctx := context.Background()

	var accepted, rejected []uint64
	for i := 0; i < 6; i++ {
		res, err := s.service.Create(ctx, s.input(fmt.Sprintf("user%d", i)))
		s.Require().NoError(err)
		if i%2 == 0 {
			accepted = append(accepted, res.Request.ID)
		} else {
			rejected = append(rejected, res.Request.ID)
		}
	}

	s.Require().NoError(s.service.Accept(ctx, accepted))
	s.Require().NoError(s.service.Reject(ctx, rejected))

	count, err := s.service.Count(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Zero(count, "every id left the queue exactly once")

	residents, err := s.store.CountResidents(ctx)
	s.Require().NoError(err)
	s.Equal(len(accepted), residents)
}
