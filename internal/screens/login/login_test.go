package login

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/fitrack/internal/auth"
)

type fakeAuth struct {
	logins    []auth.Credentials
	registers []auth.Credentials
	err       error
}

func (f *fakeAuth) Login(_ context.Context, c auth.Credentials) (auth.User, error) {
	f.logins = append(f.logins, c)
	return auth.User{Email: c.Email, UserID: "u1"}, f.err
}

func (f *fakeAuth) Register(_ context.Context, c auth.Credentials) (auth.User, error) {
	f.registers = append(f.registers, c)
	return auth.User{Email: c.Email, UserID: "u2"}, f.err
}

func enter() tea.KeyPressMsg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

func TestEnterOnEmailMovesToPassword(t *testing.T) {
	s := New(&fakeAuth{})
	s.Init()

	_, cmd := s.Update(enter())
	if s.focus != fieldPassword {
		t.Errorf("expected password focus, got %d", s.focus)
	}
	if cmd != nil {
		if _, ok := cmd().(authDoneMsg); ok {
			t.Error("enter on the email field should not submit")
		}
	}
}

func TestSubmitRequiresBothFields(t *testing.T) {
	f := &fakeAuth{}
	s := New(f)
	s.Init()
	s.setFocus(fieldPassword)

	_, cmd := s.Update(enter())
	if cmd != nil {
		t.Error("expected no command for empty credentials")
	}
	if !strings.Contains(s.errMsg, "required") {
		t.Errorf("expected required message, got %q", s.errMsg)
	}
	if len(f.logins) != 0 {
		t.Error("login should not be called")
	}
}

func TestSubmitLogsIn(t *testing.T) {
	f := &fakeAuth{}
	s := New(f)
	s.Init()
	s.email.SetValue("  ana@example.com ")
	s.password.SetValue("secret")
	s.setFocus(fieldPassword)

	_, cmd := s.Update(enter())
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if !s.busy {
		t.Error("expected busy while submitting")
	}

	msg := cmd()
	done, ok := msg.(authDoneMsg)
	if !ok {
		t.Fatalf("expected authDoneMsg, got %T", msg)
	}
	if len(f.logins) != 1 || f.logins[0].Email != "ana@example.com" || f.logins[0].Password != "secret" {
		t.Errorf("unexpected login calls: %+v", f.logins)
	}

	s.Update(done)
	if s.busy {
		t.Error("expected busy cleared")
	}
	if s.password.Value() != "" {
		t.Error("expected password cleared after sign-in")
	}
}

func TestToggleRegister(t *testing.T) {
	f := &fakeAuth{}
	s := New(f)
	s.Init()

	s.Update(tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	if !s.register || s.Title() != "Sign Up" {
		t.Fatalf("expected sign-up mode, register=%v title=%q", s.register, s.Title())
	}

	s.email.SetValue("bo@example.com")
	s.password.SetValue("pw")
	s.setFocus(fieldPassword)
	_, cmd := s.Update(enter())
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	cmd()
	if len(f.registers) != 1 || len(f.logins) != 0 {
		t.Errorf("expected one register call, got registers=%d logins=%d", len(f.registers), len(f.logins))
	}
}

func TestFailureShowsError(t *testing.T) {
	s := New(&fakeAuth{})
	s.Init()
	s.busy = true

	s.Update(authDoneMsg{Err: auth.ErrInvalidCredentials})
	if s.busy {
		t.Error("expected busy cleared")
	}
	if s.errMsg != "Invalid email or password" {
		t.Errorf("unexpected error message %q", s.errMsg)
	}
	if !strings.Contains(s.View(80, 24), "Invalid email or password") {
		t.Error("view should show the error")
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	s := New(&fakeAuth{})
	s.Init()
	s.busy = true

	if _, cmd := s.Update(enter()); cmd != nil {
		t.Error("expected keys ignored while busy")
	}
}
