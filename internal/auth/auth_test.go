package auth

import (
    "context"
    "testing"
    "time"

    "notifyhub/internal/store"
)

func newService(t *testing.T) *Service {
    t.Helper()
    return NewService(store.NewMemory(), "test-secret")
}

func TestRegisterAndAuthenticate(t *testing.T) {
    s := newService(t)
    ctx := context.Background()
    u, err := s.Register(ctx, "alice", "alice@example.com", "s3cret")
    if err != nil { t.Fatalf("register: %v", err) }
    if u.PasswordHash == "s3cret" { t.Fatal("password stored in the clear") }

    if _, err := s.Register(ctx, "alice", "", "other"); err != ErrUserExists {
        t.Fatalf("duplicate register: got %v", err)
    }

    got, err := s.Authenticate(ctx, "alice", "s3cret")
    if err != nil || got.ID != u.ID { t.Fatalf("authenticate: %v", err) }
    if _, err := s.Authenticate(ctx, "alice", "wrong"); err != ErrInvalidCredentials {
        t.Fatalf("bad password: got %v", err)
    }
    if _, err := s.Authenticate(ctx, "nobody", "x"); err != ErrInvalidCredentials {
        t.Fatalf("unknown user: got %v", err)
    }
}

func TestIssueVerifyRefresh(t *testing.T) {
    s := newService(t)
    ctx := context.Background()
    u, err := s.Register(ctx, "bob", "", "pw")
    if err != nil { t.Fatalf("register: %v", err) }

    pair, err := s.Issue(u)
    if err != nil { t.Fatalf("issue: %v", err) }

    pr, err := s.Verify(pair.Access)
    if err != nil { t.Fatalf("verify access: %v", err) }
    if pr.UserID != u.ID || pr.Username != "bob" { t.Fatalf("principal: %+v", pr) }

    // refresh tokens must not pass the access check
    if _, err := s.Verify(pair.Refresh); err != ErrInvalidToken {
        t.Fatalf("refresh as access: got %v", err)
    }

    access, err := s.Refresh(ctx, pair.Refresh)
    if err != nil { t.Fatalf("refresh: %v", err) }
    if _, err := s.Verify(access); err != nil { t.Fatalf("verify refreshed access: %v", err) }

    // and access tokens must not pass the refresh check
    if _, err := s.Refresh(ctx, pair.Access); err != ErrInvalidToken {
        t.Fatalf("access as refresh: got %v", err)
    }
}

func TestVerifyRejectsGarbageAndExpired(t *testing.T) {
    s := newService(t)
    if _, err := s.Verify("not.a.jwt"); err != ErrInvalidToken {
        t.Fatalf("garbage: got %v", err)
    }

    u, err := s.Register(context.Background(), "carol", "", "pw")
    if err != nil { t.Fatalf("register: %v", err) }
    pair, err := s.Issue(u)
    if err != nil { t.Fatalf("issue: %v", err) }

    // jump past the access TTL
    s.now = func() time.Time { return time.Now().Add(time.Hour) }
    if _, err := s.Verify(pair.Access); err != ErrInvalidToken {
        t.Fatalf("expired: got %v", err)
    }
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
    a := NewService(store.NewMemory(), "secret-a")
    b := NewService(store.NewMemory(), "secret-b")
    u, err := a.Register(context.Background(), "dave", "", "pw")
    if err != nil { t.Fatalf("register: %v", err) }
    pair, err := a.Issue(u)
    if err != nil { t.Fatalf("issue: %v", err) }
    if _, err := b.Verify(pair.Access); err != ErrInvalidToken {
        t.Fatalf("foreign secret: got %v", err)
    }
}
