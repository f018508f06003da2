package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tripplanner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorageContract exercises the behaviour every backend must share.
// newStorage must return an empty store.
func testStorageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newUser := func(t *testing.T, s Storage, email string, createdAt time.Time) *models.User {
		t.Helper()
		u := models.NewUser(email, "Traveler "+email, "tp_token_"+email)
		u.CreatedAt = createdAt
		u.UpdatedAt = createdAt
		require.NoError(t, s.CreateUser(ctx, u))
		return u
	}

	newTrip := func(t *testing.T, s Storage, userID, destination string, updatedAt time.Time) *models.Trip {
		t.Helper()
		trip := models.NewTrip(userID, "")
		trip.ApplyContext(models.TripContext{Destination: destination})
		trip.CreatedAt = base
		trip.UpdatedAt = updatedAt
		require.NoError(t, s.SaveTrip(ctx, trip))
		return trip
	}

	t.Run("Users", func(t *testing.T) {
		s := newStorage(t)

		ada := newUser(t, s, "ada@example.com", base)
		newUser(t, s, "grace@example.com", base.Add(time.Hour))

		got, err := s.GetUser(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, ada.TokenHash, got.TokenHash)
		assert.Equal(t, ada.TokenPrefix, got.TokenPrefix)
		assert.WithinDuration(t, base, got.CreatedAt, time.Millisecond)

		got, err = s.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, ada.ID, got.ID)

		got, err = s.GetUserByTokenHash(ctx, models.HashToken("tp_token_ada@example.com"))
		require.NoError(t, err)
		assert.Equal(t, ada.ID, got.ID)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "ada@example.com", users[0].Email)
		assert.Equal(t, "grace@example.com", users[1].Email)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		s := newStorage(t)

		_, err := s.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByTokenHash(ctx, models.HashToken("nope"))
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByTokenHash(ctx, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		s := newStorage(t)
		newUser(t, s, "ada@example.com", base)

		dup := models.NewUser("ada@example.com", "Other Ada", "tp_other")
		assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrConflict)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("TripUpsert", func(t *testing.T) {
		s := newStorage(t)
		user := newUser(t, s, "ada@example.com", base)
		trip := newTrip(t, s, user.ID, "Lisbon", base)

		got, err := s.GetTrip(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip to Lisbon", got.Title)
		assert.Equal(t, "Lisbon", got.Destination)
		assert.Equal(t, []string{}, got.Interests)
		assert.Empty(t, got.StartDate)

		got.StartDate = "2025-07-01"
		got.EndDate = "2025-07-08"
		got.Travelers = 2
		got.Budget = 2500
		got.Currency = "EUR"
		got.Interests = []string{"food", "museums"}
		got.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, s.SaveTrip(ctx, got))

		again, err := s.GetTrip(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-01", again.StartDate)
		assert.Equal(t, "2025-07-08", again.EndDate)
		assert.Equal(t, 2, again.Travelers)
		assert.Equal(t, 2500.0, again.Budget)
		assert.Equal(t, "EUR", again.Currency)
		assert.Equal(t, []string{"food", "museums"}, again.Interests)
		assert.WithinDuration(t, base.Add(time.Hour), again.UpdatedAt, time.Millisecond)

		trips, err := s.ListTrips(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, trips, 1)

		_, err = s.GetTrip(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ReturnedTripsAreCopies", func(t *testing.T) {
		s := newStorage(t)
		user := newUser(t, s, "ada@example.com", base)
		trip := newTrip(t, s, user.ID, "Lisbon", base)
		trip.Interests = append(trip.Interests, "mutated-after-save")

		got, err := s.GetTrip(ctx, trip.ID)
		require.NoError(t, err)
		got.Title = "changed"
		got.Interests = append(got.Interests, "beach")

		again, err := s.GetTrip(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip to Lisbon", again.Title)
		assert.Empty(t, again.Interests)
	})

	t.Run("ListTripsByOwner", func(t *testing.T) {
		s := newStorage(t)
		ada := newUser(t, s, "ada@example.com", base)
		grace := newUser(t, s, "grace@example.com", base)

		newTrip(t, s, ada.ID, "Oslo", base.Add(1*time.Hour))
		newTrip(t, s, ada.ID, "Rome", base.Add(3*time.Hour))
		newTrip(t, s, ada.ID, "Kyoto", base.Add(2*time.Hour))
		newTrip(t, s, grace.ID, "Lima", base)

		trips, err := s.ListTrips(ctx, ada.ID)
		require.NoError(t, err)
		require.Len(t, trips, 3)
		assert.Equal(t, "Rome", trips[0].Destination)
		assert.Equal(t, "Kyoto", trips[1].Destination)
		assert.Equal(t, "Oslo", trips[2].Destination)

		trips, err = s.ListTrips(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, trips)
		assert.Empty(t, trips)
	})

	t.Run("Messages", func(t *testing.T) {
		s := newStorage(t)
		user := newUser(t, s, "ada@example.com", base)
		trip := newTrip(t, s, user.ID, "Lisbon", base)

		for i := 0; i < 5; i++ {
			role := models.RoleUser
			if i%2 == 1 {
				role = models.RoleAssistant
			}
			msg := models.NewMessage(trip.ID, user.ID, role, fmt.Sprintf("message %d", i))
			require.NoError(t, s.AppendMessage(ctx, msg))
		}

		msgs, err := s.Messages(ctx, trip.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 5)
		for i, msg := range msgs {
			assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
			assert.Equal(t, trip.ID, msg.TripID)
		}
		assert.Equal(t, models.RoleAssistant, msgs[1].Role)

		orphan := models.NewMessage("missing-trip", user.ID, models.RoleUser, "hello?")
		assert.ErrorIs(t, s.AppendMessage(ctx, orphan), ErrNotFound)

		msgs, err = s.Messages(ctx, "missing-trip")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("DeleteTripCascades", func(t *testing.T) {
		s := newStorage(t)
		user := newUser(t, s, "ada@example.com", base)
		keep := newTrip(t, s, user.ID, "Oslo", base)
		drop := newTrip(t, s, user.ID, "Rome", base)

		require.NoError(t, s.AppendMessage(ctx, models.NewMessage(keep.ID, user.ID, models.RoleUser, "keep me")))
		require.NoError(t, s.AppendMessage(ctx, models.NewMessage(drop.ID, user.ID, models.RoleUser, "drop me")))

		require.NoError(t, s.DeleteTrip(ctx, drop.ID))

		_, err := s.GetTrip(ctx, drop.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		msgs, err := s.Messages(ctx, drop.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		msgs, err = s.Messages(ctx, keep.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)

		assert.ErrorIs(t, s.DeleteTrip(ctx, drop.ID), ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStorage(t)
		assert.NoError(t, s.Ping(ctx))
	})
}
