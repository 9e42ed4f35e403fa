package mem

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"
)

const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultMaxAttempts = 5
)

var (
	ErrCodeNotFound    = errors.New("code not found or expired")
	ErrCodeMismatch    = errors.New("code mismatch")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// VerificationCodeStore holds one pending one-time code per phone number.
type VerificationCodeStore interface {
	// Issue stores code for phone, replacing any pending code, and returns
	// its expiry.
	Issue(phone, code string) time.Time

	// Verify consumes the code on success. A wrong code counts as an
	// attempt; reaching the attempt limit discards the code.
	Verify(phone, code string) error

	// Sweep drops expired codes and returns how many were removed.
	Sweep() int

	Len() int
}

type codeEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

type VerificationCodes struct {
	mu          sync.Mutex
	data        map[string]*codeEntry
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewVerificationCodes(ttl time.Duration, maxAttempts int, now func() time.Time) *VerificationCodes {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if now == nil {
		now = time.Now
	}
	return &VerificationCodes{
		data:        make(map[string]*codeEntry),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         now,
	}
}

func (s *VerificationCodes) Issue(phone, code string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(s.ttl)
	s.data[phone] = &codeEntry{code: code, expiresAt: expiresAt}
	return expiresAt
}

func (s *VerificationCodes) Verify(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[phone]
	if !ok {
		return ErrCodeNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.data, phone)
		return ErrCodeNotFound
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) == 1 {
		delete(s.data, phone) // single-use
		return nil
	}

	e.attempts++
	if e.attempts >= s.maxAttempts {
		delete(s.data, phone)
		return ErrTooManyAttempts
	}
	return ErrCodeMismatch
}

func (s *VerificationCodes) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for phone, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, phone)
			removed++
		}
	}
	return removed
}

func (s *VerificationCodes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// StartJanitor sweeps every interval until StopJanitor is called.
func (s *VerificationCodes) StartJanitor(interval time.Duration, onSweep func(removed int)) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 && onSweep != nil {
					onSweep(n)
				}
			case <-stop:
				return
			}
		}
	}()
}

func (s *VerificationCodes) StopJanitor() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
