package domain

import (
	"testing"
	"time"

	mfadomain "portfolio-admin/internal/mfa/domain"
)

func TestState_Authenticated(t *testing.T) {
	testCases := []struct {
		name  string
		state *State
		want  bool
	}{
		{"nil", nil, false},
		{"zero", &State{}, false},
		{"admin only", &State{AdminSession: true}, false},
		{"verified only", &State{OTPVerified: true}, false},
		{"both", &State{AdminSession: true, OTPVerified: true}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.Authenticated(); got != tc.want {
				t.Errorf("Authenticated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestState_Transitions(t *testing.T) {
	now := time.Now()
	s := &State{}
	if s.Phase() != PhaseAnonymous {
		t.Fatalf("Phase = %v, want anonymous", s.Phase())
	}

	s.Issue(&mfadomain.Challenge{CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)})
	if s.Phase() != PhaseCredentialsOK {
		t.Fatalf("Phase after Issue = %v, want credentials_ok", s.Phase())
	}

	s.Promote()
	if s.Phase() != PhaseAuthenticated || s.Pending != nil {
		t.Fatalf("after Promote: phase=%v pending=%v", s.Phase(), s.Pending)
	}

	s.Issue(&mfadomain.Challenge{CodeHash: "h2"})
	if s.AdminSession || s.OTPVerified {
		t.Error("Issue should lower both flags")
	}

	s.Reset()
	if s.Phase() != PhaseAnonymous || s.Pending != nil {
		t.Errorf("after Reset: phase=%v pending=%v", s.Phase(), s.Pending)
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseAuthenticated.String() != "authenticated" || PhaseCredentialsOK.String() != "credentials_ok" || PhaseAnonymous.String() != "anonymous" {
		t.Error("unexpected Phase strings")
	}
}
