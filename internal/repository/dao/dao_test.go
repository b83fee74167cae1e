package dao

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

// TestMain boots a throwaway Postgres container for the DAO tests.
// Run with -short to skip everything that needs Docker.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not construct docker pool: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("could not connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=campuslink_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	dsn := fmt.Sprintf("host=localhost port=%v user=test password=test dbname=campuslink_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	if err = pool.Retry(func() error {
		db, openErr := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if openErr != nil {
			return openErr
		}

		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return dbErr
		}
		if pingErr := sqlDB.Ping(); pingErr != nil {
			return pingErr
		}

		testDB = db

		return nil
	}); err != nil {
		log.Fatalf("could not connect to postgres: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres container: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("requires docker")
	}

	return testDB
}

func insertResource(t *testing.T, db *gorm.DB, maxParticipants int) Resource {
	t.Helper()

	resource, err := NewResourceDAO(db).Insert(context.Background(), Resource{
		Kind:            "session",
		OwnerID:         1,
		Title:           "Calculus help",
		StartTime:       time.Now().Add(24 * time.Hour),
		HourlyRate:      20,
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)

	return resource
}

func TestResourceDAO_AdmitOrWaitlist(t *testing.T) {
	db := requireDB(t)
	d := NewResourceDAO(db)
	ctx := context.Background()

	t.Run("fills the roster then waitlists", func(t *testing.T) {
		resource := insertResource(t, db, 2)

		p1, err := d.AdmitOrWaitlist(ctx, resource.ID, 101, "Ada")
		require.NoError(t, err)
		assert.Equal(t, "registered", p1.Status)

		p2, err := d.AdmitOrWaitlist(ctx, resource.ID, 102, "Grace")
		require.NoError(t, err)
		assert.Equal(t, "registered", p2.Status)

		p3, err := d.AdmitOrWaitlist(ctx, resource.ID, 103, "Edsger")
		require.NoError(t, err)
		assert.Equal(t, "waitlist", p3.Status)

		count, err := d.CountRegistered(ctx, resource.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("rejoin refreshes the name without demoting", func(t *testing.T) {
		resource := insertResource(t, db, 1)

		p1, err := d.AdmitOrWaitlist(ctx, resource.ID, 201, "Ada")
		require.NoError(t, err)
		_, err = d.AdmitOrWaitlist(ctx, resource.ID, 202, "Grace")
		require.NoError(t, err)

		again, err := d.AdmitOrWaitlist(ctx, resource.ID, 201, "Ada L.")
		require.NoError(t, err)

		assert.Equal(t, p1.ID, again.ID)
		assert.Equal(t, "registered", again.Status)
		assert.Equal(t, "Ada L.", again.DisplayName)

		count, err := d.CountRegistered(ctx, resource.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := d.AdmitOrWaitlist(ctx, 999999, 1, "Nobody")
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})

	t.Run("concurrent joins never exceed capacity", func(t *testing.T) {
		resource := insertResource(t, db, 3)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				_, _ = d.AdmitOrWaitlist(ctx, resource.ID, userID, "racer")
			}(uint(300 + i))
		}
		wg.Wait()

		count, err := d.CountRegistered(ctx, resource.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		participants, err := d.FindParticipants(ctx, resource.ID)
		require.NoError(t, err)
		assert.Len(t, participants, 10)
	})
}

func TestResourceDAO_RemoveAndPromote(t *testing.T) {
	db := requireDB(t)
	d := NewResourceDAO(db)
	ctx := context.Background()

	resource := insertResource(t, db, 1)

	_, err := d.AdmitOrWaitlist(ctx, resource.ID, 401, "Ada")
	require.NoError(t, err)
	_, err = d.AdmitOrWaitlist(ctx, resource.ID, 402, "Grace")
	require.NoError(t, err)
	_, err = d.AdmitOrWaitlist(ctx, resource.ID, 403, "Edsger")
	require.NoError(t, err)

	promoted, err := d.RemoveAndPromote(ctx, resource.ID, 401)
	require.NoError(t, err)

	require.NotNil(t, promoted)
	assert.Equal(t, "registered", promoted.Status)
	assert.Equal(t, "Grace", promoted.DisplayName)

	count, err := d.CountRegistered(ctx, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = d.RemoveAndPromote(ctx, resource.ID, 401)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestBookingDAO_TransitionFromPending(t *testing.T) {
	db := requireDB(t)
	d := NewBookingDAO(db)
	ctx := context.Background()

	resource := insertResource(t, db, 5)

	booking, err := d.Insert(ctx, Booking{
		ResourceID:      resource.ID,
		RequesterName:   "Ada",
		StartTime:       time.Now().Add(48 * time.Hour),
		DurationMinutes: 60,
		HourlyRate:      20,
		Total:           20,
		Status:          "pending",
	})
	require.NoError(t, err)

	changed, err := d.TransitionFromPending(ctx, booking.ID, "accepted", "https://meet.example/abc")
	require.NoError(t, err)
	assert.True(t, changed)

	current, err := d.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", current.Status)
	assert.Equal(t, "https://meet.example/abc", current.MeetingLink)

	// The booking left pending, so a second transition is a no-op.
	changed, err = d.TransitionFromPending(ctx, booking.ID, "rejected", "")
	require.NoError(t, err)
	assert.False(t, changed)

	current, err = d.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", current.Status)

	changed, err = d.AttachMeetingLink(ctx, booking.ID, "https://meet.example/xyz")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestPollDAO_UpsertBallot(t *testing.T) {
	db := requireDB(t)
	d := NewPollDAO(db)
	ctx := context.Background()

	poll, err := d.Insert(ctx, Poll{
		Title:     "Lunch spot",
		CreatorID: 1,
		IsActive:  true,
		Options: []PollOption{
			{OptionID: "opt-a", Label: "Pizza", Position: 0},
			{OptionID: "opt-b", Label: "Ramen", Position: 1},
		},
	})
	require.NoError(t, err)

	updated, err := d.UpsertBallot(ctx, poll.ID, 501, "opt-a")
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = d.UpsertBallot(ctx, poll.ID, 501, "opt-b")
	require.NoError(t, err)
	assert.True(t, updated)

	tallies, err := d.TallyBallots(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, "opt-b", tallies[0].OptionID)
	assert.Equal(t, 1, tallies[0].Count)

	ballot, err := d.FindBallot(ctx, poll.ID, 501)
	require.NoError(t, err)
	assert.Equal(t, "opt-b", ballot.OptionID)
}

func TestPollDAO_UpdateDropsOrphanedBallots(t *testing.T) {
	db := requireDB(t)
	d := NewPollDAO(db)
	ctx := context.Background()

	poll, err := d.Insert(ctx, Poll{
		Title:     "Venue",
		CreatorID: 1,
		IsActive:  true,
		Options: []PollOption{
			{OptionID: "keep", Label: "Gym", Position: 0},
			{OptionID: "drop", Label: "Aula", Position: 1},
		},
	})
	require.NoError(t, err)

	_, err = d.UpsertBallot(ctx, poll.ID, 601, "keep")
	require.NoError(t, err)
	_, err = d.UpsertBallot(ctx, poll.ID, 602, "drop")
	require.NoError(t, err)

	poll.Options = []PollOption{
		{OptionID: "keep", Label: "Gym", Position: 0},
		{OptionID: "new", Label: "Cafeteria", Position: 1},
	}
	_, err = d.Update(ctx, poll)
	require.NoError(t, err)

	tallies, err := d.TallyBallots(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, "keep", tallies[0].OptionID)

	_, err = d.FindBallot(ctx, poll.ID, 602)
	assert.ErrorIs(t, err, ErrBallotNotFound)
}
