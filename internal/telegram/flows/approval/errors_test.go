package approval

import (
	"errors"
	"testing"
)

func TestOutcomeRejection(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    error
	}{
		{outcome: OutcomeUnauthorized, want: ErrUnauthorized},
		{outcome: OutcomeAlreadyDecided, want: ErrAlreadyDecided},
		{outcome: OutcomeInvalid, want: ErrValidation},
		{outcome: OutcomeApproved},
		{outcome: OutcomeDeclined},
		{outcome: OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			got := tt.outcome.Rejection()
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Rejection() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("Rejection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreAndGatewayErrorsUnwrap(t *testing.T) {
	cause := errors.New("database is locked")

	var storeErr *StoreError
	if err := error(&StoreError{Op: "grant", Err: cause}); !errors.Is(err, cause) || !errors.As(err, &storeErr) {
		t.Fatalf("StoreError does not unwrap: %v", err)
	}

	var gwErr *GatewayError
	if err := error(&GatewayError{Op: "notify_user", Err: cause}); !errors.Is(err, cause) || !errors.As(err, &gwErr) {
		t.Fatalf("GatewayError does not unwrap: %v", err)
	}
}
