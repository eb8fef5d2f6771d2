package core

import (
	"testing"
	"time"
)

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("diabetes. a chronic condition.")
	b := IDFromContent("diabetes. a chronic condition.")
	c := IDFromContent("hypertension. high blood pressure.")

	if a != b {
		t.Fatalf("Expected identical IDs for identical content, got %d and %d", a, b)
	}
	if a == c {
		t.Fatal("Expected different IDs for different content")
	}
	if a == 0 {
		t.Fatal("Expected non-zero ID")
	}
}

func TestRoleString(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
		{Role(0), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.role.String(); got != tc.want {
			t.Errorf("Role(%d).String() = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestValidateTurn(t *testing.T) {
	now := time.Now().UTC()

	valid := &Turn{Role: RoleUser, Content: "what is diabetes?", Timestamp: now}
	if err := ValidateTurn(valid); err != nil {
		t.Fatalf("Expected valid turn, got %v", err)
	}

	if err := ValidateTurn(nil); err == nil {
		t.Fatal("Expected error for nil turn")
	}
	if err := ValidateTurn(&Turn{Role: RoleUser, Timestamp: now}); err == nil {
		t.Fatal("Expected error for empty content")
	}
	if err := ValidateTurn(&Turn{Role: Role(99), Content: "x", Timestamp: now}); err == nil {
		t.Fatal("Expected error for invalid role")
	}
	future := &Turn{Role: RoleUser, Content: "x", Timestamp: now.Add(time.Hour)}
	if err := ValidateTurn(future); err == nil {
		t.Fatal("Expected error for future timestamp")
	}
}

func TestTurnSerializationRoundTrip(t *testing.T) {
	turn := Turn{
		Role:      RoleAssistant,
		Content:   "Diabetes is a chronic condition.",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, TurnMUS.Size(turn))
	n := TurnMUS.Marshal(turn, bs)
	if n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(bs))
	}

	decoded, n, err := TurnMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(bs) {
		t.Fatalf("Unmarshal consumed %d bytes, expected %d", n, len(bs))
	}
	if decoded.Role != turn.Role || decoded.Content != turn.Content {
		t.Fatalf("Round trip mismatch: got %+v, want %+v", decoded, turn)
	}
	if !decoded.Timestamp.Equal(turn.Timestamp) {
		t.Fatalf("Timestamp mismatch: got %v, want %v", decoded.Timestamp, turn.Timestamp)
	}

	skipped, err := TurnMUS.Skip(bs)
	if err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if skipped != len(bs) {
		t.Fatalf("Skip consumed %d bytes, expected %d", skipped, len(bs))
	}
}
