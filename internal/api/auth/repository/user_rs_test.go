package authRepository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"WorkHoursMonitor/internal/api/auth"
)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "email", err: &pq.Error{Code: "23505", Constraint: "users_email_key"}, want: auth.ErrEmailAlreadyExists},
		{name: "username wrapped", err: fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Constraint: "users_username_key"}), want: auth.ErrUsernameAlreadyExists},
		{name: "other constraint", err: &pq.Error{Code: "23505", Constraint: "users_pkey"}},
		{name: "foreign key", err: &pq.Error{Code: "23503", Constraint: "users_manager_id_fkey"}},
		{name: "not a postgres error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueViolation(tt.err); got != tt.want {
				t.Fatalf("uniqueViolation: got %v, want %v", got, tt.want)
			}
		})
	}
}
