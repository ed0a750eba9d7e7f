package crypto

import "testing"

func TestSignUnlockTokenDeterministic(t *testing.T) {
	a := SignUnlockToken("secret", 42, "hash-a", "view")
	b := SignUnlockToken("secret", 42, "hash-a", "view")
	if a == "" {
		t.Fatal("SignUnlockToken() returned empty token")
	}
	if a != b {
		t.Error("SignUnlockToken() is not deterministic for identical input")
	}
}

func TestSignUnlockTokenEmptyHash(t *testing.T) {
	if got := SignUnlockToken("secret", 42, "", "view"); got != "" {
		t.Errorf("SignUnlockToken() with empty hash = %q, want empty", got)
	}
}

func TestVerifyUnlockToken(t *testing.T) {
	token := SignUnlockToken("secret", 42, "hash-a", "view")

	if !VerifyUnlockToken(token, "secret", 42, "hash-a", "view") {
		t.Error("VerifyUnlockToken() rejected a valid token")
	}
	if VerifyUnlockToken(token, "secret", 43, "hash-a", "view") {
		t.Error("VerifyUnlockToken() accepted a token for a different gallery")
	}
	if VerifyUnlockToken(token, "secret", 42, "hash-a", "download") {
		t.Error("VerifyUnlockToken() accepted a token for a different scope")
	}
	if VerifyUnlockToken(token, "other-secret", 42, "hash-a", "view") {
		t.Error("VerifyUnlockToken() accepted a token signed with a different secret")
	}
	if VerifyUnlockToken("", "secret", 42, "hash-a", "view") {
		t.Error("VerifyUnlockToken() accepted an empty token")
	}
}

// Changing the stored password hash must invalidate all previously issued
// tokens for that scope. This is the system's only revocation mechanism.
func TestVerifyUnlockTokenRevokedByHashChange(t *testing.T) {
	oldToken := SignUnlockToken("secret", 42, "old-hash", "view")

	if VerifyUnlockToken(oldToken, "secret", 42, "new-hash", "view") {
		t.Error("VerifyUnlockToken() accepted a token bound to a replaced hash")
	}
}

func TestSignUnlockTokenDelimiterBinding(t *testing.T) {
	// "ab|c" vs "a" + "b|c" style splits must not collide.
	a := SignUnlockToken("secret", 1, "h|view", "x")
	b := SignUnlockToken("secret", 1, "h", "view|x")
	if a == b {
		t.Error("SignUnlockToken() collides across field boundaries")
	}
}
