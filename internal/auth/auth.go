// Package auth is the local auth collaborator. It tracks the signed-in
// user and publishes authentication changes. Credentials are not verified.
package auth

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for an empty email or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the login/registration input.
type Credentials struct {
	Email    string
	Password string
}

// User is the signed-in user.
type User struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// Service holds the current user.
type Service struct {
	mu        sync.Mutex
	user      *User
	listeners map[*Listener]struct{}
}

// New returns a signed-out Service.
func New() *Service {
	return &Service{listeners: make(map[*Listener]struct{})}
}

// Register signs up and signs in.
func (s *Service) Register(c Credentials) (User, error) {
	return s.signIn(c)
}

// Login signs in.
func (s *Service) Login(c Credentials) (User, error) {
	return s.signIn(c)
}

func (s *Service) signIn(c Credentials) (User, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || c.Password == "" {
		return User{}, ErrInvalidCredentials
	}
	u := User{Email: email, UserID: uuid.New().String()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.publish(true)
	return u, nil
}

// Logout signs out. Listeners are told even when nobody was signed in.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.publish(false)
}

// IsAuth reports whether a user is signed in.
func (s *Service) IsAuth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns a copy of the signed-in user.
func (s *Service) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Subscribe returns a Listener that receives every later auth change in
// order, repeats included.
func (s *Service) Subscribe() *Listener {
	l := &Listener{
		ch:   make(chan bool),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		svc:  s,
	}
	s.mu.Lock()
	s.listeners[l] = struct{}{}
	s.mu.Unlock()
	go l.pump()
	return l
}

// publish must be called with s.mu held.
func (s *Service) publish(v bool) {
	for l := range s.listeners {
		l.offer(v)
	}
}

// Listener is an ordered auth change feed. A quick logout and login reach
// the reader as false then true, never as a single true.
type Listener struct {
	mu      sync.Mutex
	pending []bool
	closed  bool

	ch   chan bool
	wake chan struct{}
	quit chan struct{}
	svc  *Service
}

// C returns the change channel. It is closed shortly after Cancel.
func (l *Listener) C() <-chan bool { return l.ch }

// Cancel unsubscribes and closes C. Safe to call more than once.
func (l *Listener) Cancel() {
	l.svc.mu.Lock()
	delete(l.svc.listeners, l)
	l.svc.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		l.pending = nil
		close(l.quit)
	}
}

func (l *Listener) offer(v bool) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, v)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pump hands queued values to C one at a time so offer never blocks.
func (l *Listener) pump() {
	defer close(l.ch)
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.mu.Unlock()
			select {
			case <-l.wake:
				continue
			case <-l.quit:
				return
			}
		}
		v := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()

		select {
		case l.ch <- v:
		case <-l.quit:
			return
		}
	}
}
