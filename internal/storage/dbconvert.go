package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"tripplanner/internal/models"
)

// sqliteTimeLayout is fixed-width so that stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// marshalInterests converts a string slice of interests to a JSON string.
func marshalInterests(interests []string) (string, error) {
	if interests == nil {
		interests = []string{}
	}
	b, err := json.Marshal(interests)
	if err != nil {
		return "", fmt.Errorf("marshal interests: %w", err)
	}
	return string(b), nil
}

// unmarshalInterests parses a JSON array into a string slice of interests.
func unmarshalInterests(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var interests []string
	if err := json.Unmarshal(data, &interests); err != nil {
		return nil, fmt.Errorf("unmarshal interests: %w", err)
	}
	if interests == nil {
		interests = []string{}
	}
	return interests, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		// Rows written by other tools may carry plain RFC3339.
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyTrip(t *models.Trip) *models.Trip {
	c := *t
	c.Interests = append([]string{}, t.Interests...)
	return &c
}

func copyMessage(m *models.Message) *models.Message {
	c := *m
	return &c
}
