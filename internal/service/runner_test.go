package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type fakePassLock struct {
	held       bool
	acquireErr error
	released   []string
}

func (l *fakePassLock) Acquire(ctx context.Context) (string, bool, error) {
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "lock-token", true, nil
}

func (l *fakePassLock) Release(ctx context.Context, token string) error {
	l.released = append(l.released, token)
	l.held = false
	return nil
}

type fakeSummaryStore struct {
	last    *model.PassSummary
	saveErr error
}

func (s *fakeSummaryStore) SaveLastSummary(ctx context.Context, summary *model.PassSummary) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.last = summary
	return nil
}

func (s *fakeSummaryStore) LastSummary(ctx context.Context) (*model.PassSummary, error) {
	return s.last, nil
}

type passFunc func(ctx context.Context) (*model.PassSummary, error)

func (f passFunc) RunDailyPass(ctx context.Context) (*model.PassSummary, error) {
	return f(ctx)
}

func TestPassRunner_Run(t *testing.T) {
	ctx := context.Background()
	done := passFunc(func(ctx context.Context) (*model.PassSummary, error) {
		return &model.PassSummary{PassID: "pass-1", AccountsProcessed: 2}, nil
	})

	t.Run("runs under the lock and caches the summary", func(t *testing.T) {
		lock := &fakePassLock{}
		store := &fakeSummaryStore{}
		runner := NewPassRunner(done, lock, store, nil)

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pass-1", summary.PassID)
		assert.Equal(t, []string{"lock-token"}, lock.released)

		last, err := runner.LastSummary(ctx)
		require.NoError(t, err)
		assert.Same(t, summary, last)
	})

	t.Run("rejects a concurrent pass", func(t *testing.T) {
		lock := &fakePassLock{held: true}
		called := false
		runner := NewPassRunner(passFunc(func(ctx context.Context) (*model.PassSummary, error) {
			called = true
			return nil, nil
		}), lock, &fakeSummaryStore{}, nil)

		_, err := runner.Run(ctx)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
		assert.False(t, called)
		assert.Empty(t, lock.released)
	})

	t.Run("lock backend failure is fatal", func(t *testing.T) {
		lock := &fakePassLock{acquireErr: errors.New("redis down")}
		runner := NewPassRunner(done, lock, &fakeSummaryStore{}, nil)

		_, err := runner.Run(ctx)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternal))
	})

	t.Run("releases the lock when the pass fails", func(t *testing.T) {
		lock := &fakePassLock{}
		store := &fakeSummaryStore{}
		runner := NewPassRunner(passFunc(func(ctx context.Context) (*model.PassSummary, error) {
			return nil, apperrors.Database(errors.New("gone"))
		}), lock, store, nil)

		_, err := runner.Run(ctx)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabase))
		assert.Len(t, lock.released, 1)
		assert.Nil(t, store.last)
	})

	t.Run("summary cache failure does not fail the pass", func(t *testing.T) {
		runner := NewPassRunner(done, &fakePassLock{}, &fakeSummaryStore{saveErr: errors.New("oom")}, nil)

		summary, err := runner.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.AccountsProcessed)
	})
}
